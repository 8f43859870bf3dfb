package core_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/adapters/memory"
	"github.com/cloudx-io/openescrow/core"
)

func TestCreateAuction_DoesNotEscrowAsset(t *testing.T) {
	f := newFixture(t)

	auction, err := f.house.CreateAuction(f.ctx, administrator, core.Listing{
		Key: f.key,
		Terms: core.Terms{
			PaymentToken:   tokenAddress,
			StartPrice:     startPrice,
			BidPeriod:      bidPeriod,
			MinIncreaseBps: bidIncreaseBps,
		},
	})
	assert.NoError(t, err)

	check.Equal(t, administrator, auction.Seller)
	check.True(t, auction.StartPrice.Equal(startPrice))
	check.Equal(t, bidPeriod, auction.BidPeriod)
	check.True(t, auction.Deadline.IsZero())
	check.True(t, auction.HighestBid.IsZero())
	check.Equal(t, core.ZeroAddress, auction.HighestBidder)
	check.Equal(t, core.StatusListed, auction.Status(f.clock.Now()))

	// The asset stays with the seller until someone bids.
	check.Equal(t, administrator, f.owner(t))
}

func TestCreateAuction_Rejections(t *testing.T) {
	validTerms := core.Terms{
		PaymentToken:   tokenAddress,
		StartPrice:     startPrice,
		BidPeriod:      bidPeriod,
		MinIncreaseBps: bidIncreaseBps,
	}

	tests := []struct {
		name   string
		mutate func(*core.Terms)
		want   error
	}{
		{"increase below floor", func(t *core.Terms) { t.MinIncreaseBps = 300 }, core.ErrIncreaseTooLow},
		{"zero start price", func(t *core.Terms) { t.StartPrice = decimal.Zero }, core.ErrZeroStartPrice},
		{"negative start price", func(t *core.Terms) { t.StartPrice = decimal.NewFromInt(-1) }, core.ErrZeroStartPrice},
		{"zero bid period", func(t *core.Terms) { t.BidPeriod = 0 }, core.ErrInvalidBidPeriod},
		{"missing payment token", func(t *core.Terms) { t.PaymentToken = core.ZeroAddress }, core.ErrWrongPaymentToken},
		{"fractional start price", func(t *core.Terms) { t.StartPrice = decimal.RequireFromString("10000.5") }, core.ErrFractionalAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			terms := validTerms
			tt.mutate(&terms)

			_, err := f.house.CreateAuction(f.ctx, administrator, core.Listing{Key: f.key, Terms: terms})
			check.True(t, errors.Is(err, tt.want))

			// Nothing is recorded for a rejected listing.
			auction, err := f.house.Auction(f.ctx, f.key)
			assert.NoError(t, err)
			check.Equal(t, core.StatusUnlisted, auction.Status(f.clock.Now()))
		})
	}
}

func TestCreateAuction_FloorIsInclusive(t *testing.T) {
	f := newFixture(t)

	_, err := f.house.CreateAuction(f.ctx, administrator, core.Listing{
		Key: f.key,
		Terms: core.Terms{
			PaymentToken:   tokenAddress,
			StartPrice:     startPrice,
			BidPeriod:      bidPeriod,
			MinIncreaseBps: core.DefaultMinIncreaseFloorBps,
		},
	})
	check.NoError(t, err)
}

func TestCreateAuction_DuplicateRejected(t *testing.T) {
	f := newFixture(t)
	first := f.createDefaultAuction(t)

	_, err := f.house.CreateDefaultAuction(f.ctx, administrator, f.key, tokenAddress, decimal.NewFromInt(1))
	check.True(t, errors.Is(err, core.ErrAuctionExists))

	// The original listing is untouched.
	auction, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, first.ListingID, auction.ListingID)
	check.True(t, auction.StartPrice.Equal(startPrice))
}

func TestCreateAuction_RequiresCaller(t *testing.T) {
	f := newFixture(t)

	_, err := f.house.CreateAuction(f.ctx, core.ZeroAddress, core.Listing{Key: f.key})
	check.True(t, errors.Is(err, core.ErrMissingCaller))
}

func TestCreateDefaultAuction(t *testing.T) {
	t.Run("administrator gets default terms", func(t *testing.T) {
		f := newFixture(t)
		auction := f.createDefaultAuction(t)

		check.Equal(t, administrator, auction.Seller)
		check.Equal(t, core.DefaultBidPeriod, auction.BidPeriod)
		check.Equal(t, core.DefaultMinIncreaseBps, auction.MinIncreaseBps)
		check.Equal(t, tokenAddress, auction.PaymentToken)
	})

	t.Run("other callers are refused", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.house.CreateDefaultAuction(f.ctx, user1, f.key, tokenAddress, startPrice)
		check.True(t, errors.Is(err, core.ErrNotAdministrator))

		seller, err := f.house.Seller(f.ctx, f.key)
		assert.NoError(t, err)
		check.Equal(t, core.ZeroAddress, seller)
	})
}

func TestPlaceBid_FirstBidEscrowsAssetAndFunds(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)

	auction := f.bid(t, user1, startPriceUnits)

	check.Equal(t, user1, auction.HighestBidder)
	check.True(t, auction.HighestBid.Equal(startPrice))
	check.Equal(t, f.clock.Now().Add(bidPeriod), auction.Deadline)
	check.Equal(t, 1, auction.BidCount)
	check.Equal(t, core.StatusActive, auction.Status(f.clock.Now()))

	check.Equal(t, escrowAccount, f.owner(t))
	check.True(t, f.balance(t, escrowAccount).Equal(startPrice))
	check.True(t, f.balance(t, user1).Equal(decimal.NewFromInt(tokenAmountUnits-startPriceUnits)))
}

func TestPlaceBid_OutbidRefundsPreviousBidder(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)

	f.bid(t, user2, startPriceUnits)

	f.clock.Advance(time.Hour)
	second := increased(startPriceUnits)
	auction := f.bid(t, user3, second)

	check.Equal(t, user3, auction.HighestBidder)
	check.Equal(t, f.clock.Now().Add(bidPeriod), auction.Deadline)
	check.Equal(t, 2, auction.BidCount)

	check.True(t, f.balance(t, user2).Equal(tokenAmount))
	check.True(t, f.balance(t, user3).Equal(decimal.NewFromInt(tokenAmountUnits-second)))
	check.True(t, f.balance(t, escrowAccount).Equal(decimal.NewFromInt(second)))
	check.Equal(t, escrowAccount, f.owner(t))
}

func TestPlaceBid_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture)
		bidder  core.Address
		token   core.Address
		amount  int64
		want    error
	}{
		{
			name:   "unlisted asset",
			bidder: user1, token: tokenAddress, amount: startPriceUnits,
			want: core.ErrAuctionNotFound,
		},
		{
			name:    "seller bids",
			prepare: func(t *testing.T, f *fixture) { f.createDefaultAuction(t) },
			bidder:  administrator, token: tokenAddress, amount: startPriceUnits,
			want: core.ErrSellerBid,
		},
		{
			name:    "wrong payment token",
			prepare: func(t *testing.T, f *fixture) { f.createDefaultAuction(t) },
			bidder:  user2, token: otherTokenAddress, amount: startPriceUnits,
			want: core.ErrWrongPaymentToken,
		},
		{
			name:    "zero amount",
			prepare: func(t *testing.T, f *fixture) { f.createDefaultAuction(t) },
			bidder:  user1, token: tokenAddress, amount: 0,
			want: core.ErrWrongPaymentToken,
		},
		{
			name:    "below start price",
			prepare: func(t *testing.T, f *fixture) { f.createDefaultAuction(t) },
			bidder:  user1, token: tokenAddress, amount: startPriceUnits - 1,
			want: core.ErrBelowStartPrice,
		},
		{
			name: "two and a half percent increase",
			prepare: func(t *testing.T, f *fixture) {
				f.createDefaultAuction(t)
				f.bid(t, user1, startPriceUnits)
			},
			bidder: user2, token: tokenAddress, amount: 10250,
			want: core.ErrBelowMinIncrease,
		},
		{
			name: "after deadline",
			prepare: func(t *testing.T, f *fixture) {
				f.createDefaultAuction(t)
				f.bid(t, user1, startPriceUnits)
				f.clock.Advance(bidPeriod)
			},
			bidder: user2, token: tokenAddress, amount: 20000,
			want: core.ErrAuctionEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.prepare != nil {
				tt.prepare(t, f)
			}
			before, err := f.house.Auction(f.ctx, f.key)
			assert.NoError(t, err)
			bidderBalance := f.balance(t, tt.bidder)

			_, err = f.house.PlaceBid(f.ctx, tt.bidder, f.key, tt.token, decimal.NewFromInt(tt.amount))
			check.True(t, errors.Is(err, tt.want))

			after, err := f.house.Auction(f.ctx, f.key)
			assert.NoError(t, err)
			check.Equal(t, before.HighestBidder, after.HighestBidder)
			check.True(t, before.HighestBid.Equal(after.HighestBid))
			check.Equal(t, before.Deadline, after.Deadline)
			check.True(t, f.balance(t, tt.bidder).Equal(bidderBalance))
		})
	}
}

func TestPlaceBid_ExactMinimumIncreaseAccepted(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	f.bid(t, user1, startPriceUnits)

	_, err := f.house.PlaceBid(f.ctx, user2, f.key, tokenAddress, decimal.NewFromInt(10100))
	check.True(t, errors.Is(err, core.ErrBelowMinIncrease))

	minimum, err := f.house.MinimumNextBid(f.ctx, f.key)
	assert.NoError(t, err)
	check.True(t, minimum.Equal(decimal.NewFromInt(11000)))

	_, err = f.house.PlaceBid(f.ctx, user2, f.key, tokenAddress, minimum)
	check.NoError(t, err)
}

func TestPlaceBid_SecondIdenticalBidRejected(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	f.bid(t, user1, startPriceUnits)

	amount := decimal.NewFromInt(increased(startPriceUnits))
	_, err := f.house.PlaceBid(f.ctx, user2, f.key, tokenAddress, amount)
	assert.NoError(t, err)

	// Admissible against the state both bidders saw, but not against the
	// state left by the first of them.
	_, err = f.house.PlaceBid(f.ctx, user3, f.key, tokenAddress, amount)
	check.True(t, errors.Is(err, core.ErrBelowMinIncrease))

	bidder, err := f.house.HighestBidder(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, user2, bidder)
}

func TestPlaceBid_MissingAssetApprovalRollsBack(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.nft.Approve(administrator, "0xsomeoneelse", assetID))
	f.createDefaultAuction(t)

	_, err := f.house.PlaceBid(f.ctx, user1, f.key, tokenAddress, startPrice)
	check.True(t, errors.Is(err, core.ErrTransferFailed))
	check.True(t, strings.Contains(err.Error(), "not approved"))

	check.Equal(t, administrator, f.owner(t))
	check.Equal(t, core.Address("0xsomeoneelse"), f.approved(t))
	check.True(t, f.balance(t, user1).Equal(tokenAmount))
	check.True(t, f.allowance(t, user1).Equal(tokenAmount))

	auction, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, core.StatusListed, auction.Status(f.clock.Now()))
}

func TestPlaceBid_MissingAllowanceLeavesListingUsable(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.erc20.Approve(user1, escrowAccount, decimal.Zero))
	f.createDefaultAuction(t)

	_, err := f.house.PlaceBid(f.ctx, user1, f.key, tokenAddress, startPrice)
	check.True(t, errors.Is(err, core.ErrTransferFailed))
	check.True(t, strings.Contains(err.Error(), "allows escrow 0"))
	check.False(t, errors.Is(err, core.ErrEscrowInconsistent))

	// Neither the seller's approval nor any funds were touched.
	check.Equal(t, administrator, f.owner(t))
	check.Equal(t, escrowAccount, f.approved(t))
	check.True(t, f.balance(t, escrowAccount).IsZero())
	check.True(t, f.balance(t, user1).Equal(tokenAmount))

	highest, err := f.house.HighestBid(f.ctx, f.key)
	assert.NoError(t, err)
	check.True(t, highest.IsZero())

	f.bid(t, user2, startPriceUnits)
	check.Equal(t, escrowAccount, f.owner(t))
}

func TestPlaceBid_InsufficientBalanceMovesNothing(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	f.bid(t, user1, startPriceUnits)

	assert.NoError(t, f.erc20.Transfer(f.ctx, user3, user2, tokenAmount.Sub(decimal.NewFromInt(100))))
	_, err := f.house.PlaceBid(f.ctx, user3, f.key, tokenAddress, decimal.NewFromInt(11000))
	check.True(t, errors.Is(err, core.ErrTransferFailed))

	check.True(t, f.balance(t, user1).Equal(tokenAmount.Sub(startPrice)))
	check.True(t, f.balance(t, escrowAccount).Equal(startPrice))
	check.True(t, f.allowance(t, user3).Equal(tokenAmount))
}

func TestPlaceBid_HighestBidderRaiseUsesRefund(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	f.bid(t, user1, startPriceUnits)

	// user1 keeps 5000, which with the 10000 refund covers a raise to 11000.
	assert.NoError(t, f.erc20.Transfer(f.ctx, user1, user3, decimal.NewFromInt(35000)))
	auction := f.bid(t, user1, 11000)
	check.Equal(t, user1, auction.HighestBidder)

	check.True(t, f.balance(t, user1).Equal(decimal.NewFromInt(4000)))
	check.True(t, f.balance(t, escrowAccount).Equal(decimal.NewFromInt(11000)))
}

func TestPlaceBid_FractionalAmountsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.house.CreateAuction(f.ctx, administrator, core.Listing{
		Key: f.key,
		Terms: core.Terms{
			PaymentToken:   tokenAddress,
			StartPrice:     decimal.NewFromInt(1),
			BidPeriod:      bidPeriod,
			MinIncreaseBps: bidIncreaseBps,
		},
	})
	assert.NoError(t, err)

	_, err = f.house.PlaceBid(f.ctx, user1, f.key, tokenAddress, decimal.RequireFromString("1.5"))
	check.True(t, errors.Is(err, core.ErrFractionalAmount))

	f.bid(t, user1, 2)

	// floor(2 * 1.1) is 2, so a lower bid can never take over.
	_, err = f.house.PlaceBid(f.ctx, user2, f.key, tokenAddress, decimal.NewFromInt(1))
	check.True(t, errors.Is(err, core.ErrBelowMinIncrease))
	_, err = f.house.PlaceBid(f.ctx, user2, f.key, tokenAddress, decimal.RequireFromString("2.5"))
	check.True(t, errors.Is(err, core.ErrFractionalAmount))

	highest, err := f.house.HighestBid(f.ctx, f.key)
	assert.NoError(t, err)
	check.True(t, highest.Equal(decimal.NewFromInt(2)))
	check.True(t, f.balance(t, user1).Equal(tokenAmount.Sub(decimal.NewFromInt(2))))
}

func TestPlaceBid_CaptureFailureKeepsPreviousBid(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	first := f.bid(t, user1, startPriceUnits)

	// user3 has allowance for far less than the bid.
	assert.NoError(t, f.erc20.Approve(user3, escrowAccount, decimal.NewFromInt(100)))
	_, err := f.house.PlaceBid(f.ctx, user3, f.key, tokenAddress, decimal.NewFromInt(20000))
	check.True(t, errors.Is(err, core.ErrTransferFailed))

	auction, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, user1, auction.HighestBidder)
	check.Equal(t, first.Deadline, auction.Deadline)
	check.True(t, f.balance(t, escrowAccount).Equal(startPrice))
	check.True(t, f.balance(t, user3).Equal(tokenAmount))
	check.True(t, f.allowance(t, user3).Equal(decimal.NewFromInt(100)))
}

func TestPlaceBid_RequiresCaller(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)

	_, err := f.house.PlaceBid(f.ctx, core.ZeroAddress, f.key, tokenAddress, startPrice)
	check.True(t, errors.Is(err, core.ErrMissingCaller))
}

func TestFullAuctionLifecycle(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)

	f.bid(t, user1, 10000)

	f.clock.Advance(43200 * time.Second)
	f.bid(t, user2, 11000)

	f.clock.Advance(86000 * time.Second)
	f.bid(t, user1, 12100)

	// Each bid renews the deadline, so bidding keeps going past the
	// first bid's original deadline.
	f.clock.Advance(86001 * time.Second)
	auction := f.bid(t, user2, 13310)
	check.Equal(t, f.clock.Now().Add(bidPeriod), auction.Deadline)

	_, err := f.house.ClaimResult(f.ctx, user2, f.key)
	check.True(t, errors.Is(err, core.ErrNotEnded))

	f.clock.Advance(86401 * time.Second)
	current, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, core.StatusEnded, current.Status(f.clock.Now()))

	_, err = f.house.ClaimResult(f.ctx, user1, f.key)
	check.True(t, errors.Is(err, core.ErrNotHighestBidder))

	settlement, err := f.house.ClaimResult(f.ctx, user2, f.key)
	assert.NoError(t, err)
	check.Equal(t, user2, settlement.Winner)
	check.Equal(t, administrator, settlement.Seller)
	check.True(t, settlement.Amount.Equal(decimal.NewFromInt(13310)))
	check.Equal(t, current.ListingID, settlement.ListingID)
	check.Equal(t, f.clock.Now(), settlement.SettledAt)

	check.Equal(t, user2, f.owner(t))
	check.True(t, f.balance(t, administrator).Equal(decimal.NewFromInt(13310)))
	check.True(t, f.balance(t, user1).Equal(tokenAmount))
	check.True(t, f.balance(t, user2).Equal(decimal.NewFromInt(tokenAmountUnits-13310)))
	check.True(t, f.balance(t, escrowAccount).IsZero())

	reset, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, core.ZeroAddress, reset.Seller)
	check.Equal(t, core.ZeroAddress, reset.HighestBidder)
	check.True(t, reset.HighestBid.IsZero())
	check.True(t, reset.StartPrice.IsZero())
	check.True(t, reset.Deadline.IsZero())
	check.Equal(t, time.Duration(0), reset.BidPeriod)

	// The new owner can list the asset again.
	assert.NoError(t, f.nft.Approve(user2, escrowAccount, assetID))
	relisted, err := f.house.CreateAuction(f.ctx, user2, core.Listing{
		Key: f.key,
		Terms: core.Terms{
			PaymentToken:   tokenAddress,
			StartPrice:     decimal.NewFromInt(20000),
			BidPeriod:      time.Hour,
			MinIncreaseBps: 2000,
		},
	})
	assert.NoError(t, err)
	check.Equal(t, user2, relisted.Seller)
	check.NotEqual(t, settlement.ListingID, relisted.ListingID)
}

func TestClaimResult_WithoutBids(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)
	f.clock.Advance(2 * bidPeriod)

	_, err := f.house.ClaimResult(f.ctx, user1, f.key)
	check.True(t, errors.Is(err, core.ErrNotHighestBidder))

	_, err = f.house.ClaimResult(f.ctx, core.ZeroAddress, f.key)
	check.True(t, errors.Is(err, core.ErrNoBids))

	// A listing without bids never ends and still accepts a first bid.
	_, err = f.house.PlaceBid(f.ctx, user1, f.key, tokenAddress, startPrice)
	check.NoError(t, err)
}

func TestClaimResult_UnknownAuction(t *testing.T) {
	f := newFixture(t)

	_, err := f.house.ClaimResult(f.ctx, user1, f.key)
	check.True(t, errors.Is(err, core.ErrAuctionNotFound))
}

func TestHighestBidStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	f.createDefaultAuction(t)

	bidders := []core.Address{user1, user2, user3}
	previous := decimal.Zero
	amount := int64(startPriceUnits)
	for i := 0; i < 9; i++ {
		bidder := bidders[i%len(bidders)]

		// Anything under the minimum is refused.
		_, err := f.house.PlaceBid(f.ctx, bidder, f.key, tokenAddress, decimal.NewFromInt(amount-1))
		check.Error(t, err)

		auction := f.bid(t, bidder, amount)
		check.True(t, auction.HighestBid.GreaterThan(previous))
		if !previous.IsZero() {
			check.True(t, auction.HighestBid.GreaterThanOrEqual(core.MinimumNextBid(&core.Auction{
				HighestBid:     previous,
				MinIncreaseBps: bidIncreaseBps,
			})))
		}

		// Only the current highest bid is held.
		check.True(t, f.balance(t, escrowAccount).Equal(auction.HighestBid))

		previous = auction.HighestBid
		amount = increased(amount)
		f.clock.Advance(time.Hour)
	}
}

func TestAuctions_IndependentKeys(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.nft.Mint(user3, "2"))
	assert.NoError(t, f.nft.Approve(user3, escrowAccount, "2"))

	f.createDefaultAuction(t)
	secondKey := core.AuctionKey{Registry: nftAddress, AssetID: "2"}
	_, err := f.house.CreateAuction(f.ctx, user3, core.Listing{
		Key: secondKey,
		Terms: core.Terms{
			PaymentToken:   otherTokenAddress,
			StartPrice:     decimal.NewFromInt(500),
			BidPeriod:      time.Hour,
			MinIncreaseBps: 500,
		},
	})
	assert.NoError(t, err)

	f.bid(t, user1, startPriceUnits)
	_, err = f.house.PlaceBid(f.ctx, user2, secondKey, otherTokenAddress, decimal.NewFromInt(500))
	assert.NoError(t, err)

	// Ending the shorter auction leaves the other untouched.
	f.clock.Advance(time.Hour)
	_, err = f.house.ClaimResult(f.ctx, user2, secondKey)
	assert.NoError(t, err)

	auctions, err := f.house.Auctions(f.ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, len(auctions))
	check.Equal(t, f.key, auctions[0].Key)
	check.Equal(t, core.StatusActive, auctions[0].Status(f.clock.Now()))

	owner, err := f.nft.OwnerOf(f.ctx, "2")
	assert.NoError(t, err)
	check.Equal(t, user2, owner)
	other, err := f.other.BalanceOf(f.ctx, user3)
	assert.NoError(t, err)
	check.True(t, other.Equal(decimal.NewFromInt(500)))
}

func TestAuction_UnlistedReadsDefaults(t *testing.T) {
	f := newFixture(t)

	auction, err := f.house.Auction(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, f.key, auction.Key)
	check.Equal(t, core.StatusUnlisted, auction.Status(f.clock.Now()))

	deadline, err := f.house.Deadline(f.ctx, f.key)
	assert.NoError(t, err)
	check.True(t, deadline.IsZero())

	period, err := f.house.BidPeriod(f.ctx, f.key)
	assert.NoError(t, err)
	check.Equal(t, time.Duration(0), period)

	price, err := f.house.StartPrice(f.ctx, f.key)
	assert.NoError(t, err)
	check.True(t, price.IsZero())
}

func TestNewAuctionHouse_InvalidConfig(t *testing.T) {
	dir := memory.NewDirectory()
	store := core.NewMemoryStore()

	tests := []struct {
		name string
		cfg  core.Config
	}{
		{"missing administrator", core.Config{EscrowAccount: escrowAccount}},
		{"missing escrow account", core.Config{Administrator: administrator}},
		{"default increase below floor", core.Config{
			Administrator:         administrator,
			EscrowAccount:         escrowAccount,
			DefaultMinIncreaseBps: 100,
		}},
		{"negative bid period", core.Config{
			Administrator:    administrator,
			EscrowAccount:    escrowAccount,
			DefaultBidPeriod: -time.Second,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.NewAuctionHouse(tt.cfg, store, dir, discardLogger())
			check.Error(t, err)
		})
	}
}
