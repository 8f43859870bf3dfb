package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// BasisPoints is the base that MinIncreaseBps is expressed over (10000 = 100%).
const BasisPoints int64 = 10000

var basisPointsDecimal = decimal.NewFromInt(BasisPoints)

// BidMeetsMinimum returns true if the bid amount meets or exceeds minimum.
func BidMeetsMinimum(amount, minimum decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(minimum)
}

// MinimumNextBid returns the smallest amount AdmitBid would accept from a
// non-seller paying in the right token: the start price before the first bid,
// then floor(highestBid * (10000 + minIncreaseBps) / 10000). Amounts are whole
// base units, so the result is never below highestBid.
func MinimumNextBid(auction *Auction) decimal.Decimal {
	if auction == nil {
		return decimal.Zero
	}
	if !auction.HasBids() {
		return auction.StartPrice
	}

	multiplier := decimal.NewFromInt(BasisPoints + auction.MinIncreaseBps)
	return auction.HighestBid.Mul(multiplier).Div(basisPointsDecimal).Floor()
}

// AdmitBid decides whether bidder may bid amount of token on auction at now.
// It returns nil to accept, otherwise the reason for rejection. Checks run in
// a fixed order so that the first failing rule determines the reason.
func AdmitBid(auction *Auction, bidder, token Address, amount decimal.Decimal, now time.Time) error {
	if auction == nil {
		return ErrAuctionNotFound
	}
	if auction.Ended(now) {
		return ErrAuctionEnded
	}
	if bidder == auction.Seller {
		return ErrSellerBid
	}

	// A zero (or negative) amount is rejected like a payment in the wrong token.
	if token != auction.PaymentToken || !amount.IsPositive() {
		return ErrWrongPaymentToken
	}
	if !amount.IsInteger() {
		return ErrFractionalAmount
	}

	if !auction.HasBids() {
		if !BidMeetsMinimum(amount, auction.StartPrice) {
			return ErrBelowStartPrice
		}
		return nil
	}

	if !BidMeetsMinimum(amount, MinimumNextBid(auction)) {
		return ErrBelowMinIncrease
	}
	return nil
}
