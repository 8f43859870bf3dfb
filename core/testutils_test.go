package core_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/adapters/memory"
	"github.com/cloudx-io/openescrow/core"
)

const (
	administrator core.Address = "0xowner"
	escrowAccount core.Address = "0xauctionhouse"
	user1         core.Address = "0xuser1"
	user2         core.Address = "0xuser2"
	user3         core.Address = "0xuser3"

	nftAddress        core.Address = "0xnft"
	tokenAddress      core.Address = "0xerc20"
	otherTokenAddress core.Address = "0xother"

	assetID                   = "1"
	bidPeriod                 = 86400 * time.Second
	bidIncreaseBps      int64 = 1000
	startPriceUnits           = 10000
	tokenAmountUnits          = 50000
)

var (
	startPrice  = decimal.NewFromInt(startPriceUnits)
	tokenAmount = decimal.NewFromInt(tokenAmountUnits)
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture mirrors a freshly deployed auction house: the administrator owns
// asset 1 and has approved the escrow account for it; three users each hold
// and have approved tokenAmount of the payment token; user2 also holds a
// second, unrelated token.
type fixture struct {
	ctx   context.Context
	house *core.AuctionHouse
	store core.Store
	nft   *memory.Registry
	erc20 *memory.Ledger
	other *memory.Ledger
	clock *fakeClock
	key   core.AuctionKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	nft := memory.NewRegistry(nftAddress)
	assert.NoError(t, nft.Mint(administrator, assetID))
	assert.NoError(t, nft.Approve(administrator, escrowAccount, assetID))

	erc20 := memory.NewLedger(tokenAddress)
	for _, user := range []core.Address{user1, user2, user3} {
		assert.NoError(t, erc20.Mint(user, tokenAmount))
		assert.NoError(t, erc20.Approve(user, escrowAccount, tokenAmount))
	}

	other := memory.NewLedger(otherTokenAddress)
	assert.NoError(t, other.Mint(user2, tokenAmount))
	assert.NoError(t, other.Approve(user2, escrowAccount, tokenAmount))

	dir := memory.NewDirectory()
	dir.AddRegistry(nft)
	dir.AddLedger(erc20)
	dir.AddLedger(other)

	return newFixtureWith(t, core.NewMemoryStore(), dir, nft, erc20, other)
}

// newFaultyFixture is newFixture with the store and payment-token ledger
// wrapped so that tests can make individual steps fail.
func newFaultyFixture(t *testing.T) (*fixture, *faultyStore, *faultyDirectory) {
	t.Helper()
	base := newFixture(t)

	dir := memory.NewDirectory()
	dir.AddRegistry(base.nft)
	dir.AddLedger(base.erc20)
	dir.AddLedger(base.other)

	store := &faultyStore{MemoryStore: core.NewMemoryStore()}
	tokens := &faultyDirectory{Directory: dir}
	return newFixtureWith(t, store, tokens, base.nft, base.erc20, base.other), store, tokens
}

func newFixtureWith(t *testing.T, store core.Store, tokens core.TokenDirectory, nft *memory.Registry, erc20, other *memory.Ledger) *fixture {
	t.Helper()

	house, err := core.NewAuctionHouse(core.Config{
		Administrator: administrator,
		EscrowAccount: escrowAccount,
	}, store, tokens, discardLogger())
	assert.NoError(t, err)

	clock := newFakeClock()
	house.WithClock(clock.Now)

	return &fixture{
		ctx:   context.Background(),
		house: house,
		store: store,
		nft:   nft,
		erc20: erc20,
		other: other,
		clock: clock,
		key:   core.AuctionKey{Registry: nftAddress, AssetID: assetID},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createDefaultAuction lists the fixture asset with the default terms.
func (f *fixture) createDefaultAuction(t *testing.T) *core.Auction {
	t.Helper()
	auction, err := f.house.CreateDefaultAuction(f.ctx, administrator, f.key, tokenAddress, startPrice)
	assert.NoError(t, err)
	return auction
}

func (f *fixture) bid(t *testing.T, bidder core.Address, amount int64) *core.Auction {
	t.Helper()
	auction, err := f.house.PlaceBid(f.ctx, bidder, f.key, tokenAddress, decimal.NewFromInt(amount))
	assert.NoError(t, err)
	return auction
}

func (f *fixture) balance(t *testing.T, account core.Address) decimal.Decimal {
	t.Helper()
	balance, err := f.erc20.BalanceOf(f.ctx, account)
	assert.NoError(t, err)
	return balance
}

func (f *fixture) allowance(t *testing.T, account core.Address) decimal.Decimal {
	t.Helper()
	allowance, err := f.erc20.Allowance(f.ctx, account, escrowAccount)
	assert.NoError(t, err)
	return allowance
}

func (f *fixture) approved(t *testing.T) core.Address {
	t.Helper()
	approved, err := f.nft.GetApproved(f.ctx, assetID)
	assert.NoError(t, err)
	return approved
}

func (f *fixture) owner(t *testing.T) core.Address {
	t.Helper()
	owner, err := f.nft.OwnerOf(f.ctx, assetID)
	assert.NoError(t, err)
	return owner
}

// increased applies the integer minimum-increase formula to amount.
func increased(amount int64) int64 {
	return amount * (10000 + bidIncreaseBps) / 10000
}
