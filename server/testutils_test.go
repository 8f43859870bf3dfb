package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/adapters/memory"
	"github.com/cloudx-io/openescrow/auctionapi"
	"github.com/cloudx-io/openescrow/core"
)

const (
	testAdmin  core.Address = "0xowner"
	testEscrow core.Address = "0xescrow"
	testNFT    core.Address = "0xnft"
	testToken  core.Address = "0xerc20"
)

// testEnv is a server over an in-memory auction house where the admin owns
// asset "1" and bidders 0xuser1 and 0xuser2 each hold 50000 tokens, all
// approved for escrow.
type testEnv struct {
	server *Server
	house  *core.AuctionHouse
	nft    *memory.Registry
	erc20  *memory.Ledger
	now    time.Time
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	nft := memory.NewRegistry(testNFT)
	assert.NoError(t, nft.Mint(testAdmin, "1"))
	assert.NoError(t, nft.Approve(testAdmin, testEscrow, "1"))

	erc20 := memory.NewLedger(testToken)
	for _, user := range []core.Address{"0xuser1", "0xuser2"} {
		assert.NoError(t, erc20.Mint(user, decimal.NewFromInt(50000)))
		assert.NoError(t, erc20.Approve(user, testEscrow, decimal.NewFromInt(50000)))
	}

	dir := memory.NewDirectory()
	dir.AddRegistry(nft)
	dir.AddLedger(erc20)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	house, err := core.NewAuctionHouse(core.Config{
		Administrator: testAdmin,
		EscrowAccount: testEscrow,
	}, core.NewMemoryStore(), dir, logger)
	assert.NoError(t, err)

	env := &testEnv{
		house: house,
		nft:   nft,
		erc20: erc20,
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	house.WithClock(func() time.Time { return env.now })

	keys, err := NewKeyManager()
	assert.NoError(t, err)
	env.server = New(house, keys, opts, logger)
	return env
}

// do runs req through the dispatcher and expects an auction response.
func (e *testEnv) do(t *testing.T, req auctionapi.Request) *auctionapi.AuctionResponse {
	t.Helper()
	resp, ok := e.server.Handle(context.Background(), req).(*auctionapi.AuctionResponse)
	assert.True(t, ok)
	return resp
}

func createDefault(caller core.Address) auctionapi.Request {
	return auctionapi.Request{
		Type:         auctionapi.TypeCreateDefaultAuction,
		Caller:       caller,
		Registry:     testNFT,
		AssetID:      "1",
		PaymentToken: testToken,
		StartPrice:   decimal.NewFromInt(10000),
	}
}

func placeBid(caller core.Address, amount int64) auctionapi.Request {
	return auctionapi.Request{
		Type:         auctionapi.TypePlaceBid,
		Caller:       caller,
		Registry:     testNFT,
		AssetID:      "1",
		PaymentToken: testToken,
		Amount:       decimal.NewFromInt(amount),
	}
}

func claim(caller core.Address) auctionapi.Request {
	return auctionapi.Request{
		Type:     auctionapi.TypeClaimResult,
		Caller:   caller,
		Registry: testNFT,
		AssetID:  "1",
	}
}
