package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address identifies an account or a token contract. The empty Address is the
// zero identity.
type Address string

// ZeroAddress is the identity of "nobody", used while an auction has no bids.
const ZeroAddress Address = ""

// IsZero reports whether a is the zero identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// AuctionKey identifies the asset an auction is running for.
type AuctionKey struct {
	Registry Address `json:"registry"`
	AssetID  string  `json:"asset_id"`
}

func (k AuctionKey) String() string {
	return string(k.Registry) + "/" + k.AssetID
}

// AuctionStatus is the position of an auction in its state machine.
type AuctionStatus string

const (
	StatusUnlisted AuctionStatus = "unlisted"
	StatusListed   AuctionStatus = "listed"
	StatusActive   AuctionStatus = "active"
	StatusEnded    AuctionStatus = "ended"
)

// Auction is the full state of one listing. The zero value is the state of an
// unlisted key.
type Auction struct {
	Key            AuctionKey      `json:"key"`
	ListingID      uuid.UUID       `json:"listing_id"`
	Seller         Address         `json:"seller"`
	PaymentToken   Address         `json:"payment_token"`
	StartPrice     decimal.Decimal `json:"start_price"`
	MinIncreaseBps int64           `json:"min_increase_bps"`
	BidPeriod      time.Duration   `json:"bid_period"`
	Deadline       time.Time       `json:"deadline"`
	HighestBid     decimal.Decimal `json:"highest_bid"`
	HighestBidder  Address         `json:"highest_bidder"`
	BidCount       int             `json:"bid_count"`
	ListedAt       time.Time       `json:"listed_at"`
}

// HasBids reports whether at least one bid was accepted, i.e. whether the
// asset and the highest bid are held in escrow.
func (a *Auction) HasBids() bool {
	return a.HighestBid.IsPositive()
}

// Ended reports whether bidding is closed at now. An auction without bids
// never ends.
func (a *Auction) Ended(now time.Time) bool {
	return !a.Deadline.IsZero() && !now.Before(a.Deadline)
}

// Status derives the lifecycle state at now.
func (a *Auction) Status(now time.Time) AuctionStatus {
	switch {
	case a == nil || a.Seller.IsZero():
		return StatusUnlisted
	case !a.HasBids():
		return StatusListed
	case a.Ended(now):
		return StatusEnded
	default:
		return StatusActive
	}
}

// Terms are the seller-defined parameters of a listing.
type Terms struct {
	PaymentToken   Address
	StartPrice     decimal.Decimal
	BidPeriod      time.Duration
	MinIncreaseBps int64
}

// Listing is a request to open a custom auction.
type Listing struct {
	Key AuctionKey
	Terms
}

// Settlement describes the transfers performed when an auction is claimed.
type Settlement struct {
	ListingID    uuid.UUID
	Key          AuctionKey
	Seller       Address
	Winner       Address
	PaymentToken Address
	Amount       decimal.Decimal
	SettledAt    time.Time
}
