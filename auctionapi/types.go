package auctionapi

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/core"
)

// Request types understood by the stream server.
const (
	TypePing                 = "ping"
	TypeKeyRequest           = "key_request"
	TypeCreateAuction        = "create_auction"
	TypeCreateDefaultAuction = "create_default_auction"
	TypePlaceBid             = "place_bid"
	TypeClaimResult          = "claim_result"
	TypeGetAuction           = "get_auction"
	TypeListAuctions         = "list_auctions"
)

// Request is the envelope of every stream request. Which fields are read
// depends on Type.
type Request struct {
	Type string `json:"type"`

	// Caller is the identity the operation is performed for. Authenticating it
	// is up to whatever fronts the server.
	Caller core.Address `json:"caller,omitempty"`

	Registry core.Address `json:"registry,omitempty"`
	AssetID  string       `json:"asset_id,omitempty"`

	PaymentToken     core.Address    `json:"payment_token,omitempty"`
	StartPrice       decimal.Decimal `json:"start_price"`
	BidPeriodSeconds int64           `json:"bid_period_seconds,omitempty"`
	MinIncreaseBps   int64           `json:"min_increase_bps,omitempty"`

	Amount decimal.Decimal `json:"amount"`
}

// Key returns the auction key named by the request.
func (r Request) Key() core.AuctionKey {
	return core.AuctionKey{Registry: r.Registry, AssetID: r.AssetID}
}

// Listing builds a custom listing from the request.
func (r Request) Listing() core.Listing {
	return core.Listing{
		Key: r.Key(),
		Terms: core.Terms{
			PaymentToken:   r.PaymentToken,
			StartPrice:     r.StartPrice,
			BidPeriod:      time.Duration(r.BidPeriodSeconds) * time.Second,
			MinIncreaseBps: r.MinIncreaseBps,
		},
	}
}

// AuctionResponse is returned for every auction operation.
type AuctionResponse struct {
	Type           string         `json:"type"`
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Auction        *AuctionView   `json:"auction,omitempty"`
	Auctions       []AuctionView  `json:"auctions,omitempty"`
	Receipt        *SignedReceipt `json:"receipt,omitempty"`
	ProcessingTime int64          `json:"processing_time_ms"`
}

// KeyResponse carries the receipt verification key.
type KeyResponse struct {
	Type         string `json:"type"`
	KeyAlgorithm string `json:"key_algorithm"` // e.g., "ECDSA-P256"
	PublicKey    string `json:"public_key"`    // PEM format
}

// AuctionView is the external form of an auction record. Times are Unix
// seconds, zero when unset.
type AuctionView struct {
	Registry         core.Address       `json:"registry"`
	AssetID          string             `json:"asset_id"`
	Status           core.AuctionStatus `json:"status"`
	ListingID        string             `json:"listing_id,omitempty"`
	Seller           core.Address       `json:"seller"`
	PaymentToken     core.Address       `json:"payment_token"`
	StartPrice       decimal.Decimal    `json:"start_price"`
	MinIncreaseBps   int64              `json:"min_increase_bps"`
	BidPeriodSeconds int64              `json:"bid_period_seconds"`
	Deadline         int64              `json:"deadline"`
	HighestBid       decimal.Decimal    `json:"highest_bid"`
	HighestBidder    core.Address       `json:"highest_bidder"`
	BidCount         int                `json:"bid_count"`
	MinimumNextBid   decimal.Decimal    `json:"minimum_next_bid"`
}

// NewAuctionView renders a as seen at now.
func NewAuctionView(a core.Auction, now time.Time) AuctionView {
	view := AuctionView{
		Registry:         a.Key.Registry,
		AssetID:          a.Key.AssetID,
		Status:           a.Status(now),
		Seller:           a.Seller,
		PaymentToken:     a.PaymentToken,
		StartPrice:       a.StartPrice,
		MinIncreaseBps:   a.MinIncreaseBps,
		BidPeriodSeconds: int64(a.BidPeriod / time.Second),
		HighestBid:       a.HighestBid,
		HighestBidder:    a.HighestBidder,
		BidCount:         a.BidCount,
	}
	if a.ListingID != uuid.Nil {
		view.ListingID = a.ListingID.String()
	}
	if !a.Deadline.IsZero() {
		view.Deadline = a.Deadline.Unix()
	}
	if view.Status != core.StatusUnlisted {
		view.MinimumNextBid = core.MinimumNextBid(&a)
	}
	return view
}

// SettlementReceipt is the signed statement of what a settlement moved.
// SettlementHash commits to the other fields (see core.ComputeSettlementHash).
type SettlementReceipt struct {
	ListingID      string       `json:"listing_id" cbor:"1,keyasint"`
	Registry       core.Address `json:"registry" cbor:"2,keyasint"`
	AssetID        string       `json:"asset_id" cbor:"3,keyasint"`
	Seller         core.Address `json:"seller" cbor:"4,keyasint"`
	Winner         core.Address `json:"winner" cbor:"5,keyasint"`
	PaymentToken   core.Address `json:"payment_token" cbor:"6,keyasint"`
	Amount         string       `json:"amount" cbor:"7,keyasint"`
	SettledAt      int64        `json:"settled_at" cbor:"8,keyasint"`
	SettlementHash string       `json:"settlement_hash" cbor:"9,keyasint"`
}

// NewSettlementReceipt describes s and computes its hash.
func NewSettlementReceipt(s core.Settlement) SettlementReceipt {
	return SettlementReceipt{
		ListingID:      s.ListingID.String(),
		Registry:       s.Key.Registry,
		AssetID:        s.Key.AssetID,
		Seller:         s.Seller,
		Winner:         s.Winner,
		PaymentToken:   s.PaymentToken,
		Amount:         s.Amount.String(),
		SettledAt:      s.SettledAt.Unix(),
		SettlementHash: core.ComputeSettlementHash(s),
	}
}

// Settlement converts the receipt back to the settlement it describes.
func (r SettlementReceipt) Settlement() (core.Settlement, error) {
	listingID, err := uuid.Parse(r.ListingID)
	if err != nil {
		return core.Settlement{}, fmt.Errorf("parse listing id: %w", err)
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Settlement{}, fmt.Errorf("parse amount: %w", err)
	}
	return core.Settlement{
		ListingID:    listingID,
		Key:          core.AuctionKey{Registry: r.Registry, AssetID: r.AssetID},
		Seller:       r.Seller,
		Winner:       r.Winner,
		PaymentToken: r.PaymentToken,
		Amount:       amount,
		SettledAt:    time.Unix(r.SettledAt, 0),
	}, nil
}

// SignedReceipt pairs a receipt with its COSE_Sign1 encoding. The COSE
// payload is the CBOR encoding of Receipt; Receipt is repeated in clear for
// convenience and is not itself authenticated. COSEGzip holds the same
// message in compact form.
type SignedReceipt struct {
	Receipt  SettlementReceipt `json:"receipt"`
	COSE     ReceiptCOSEBase64 `json:"cose"`
	COSEGzip ReceiptCOSEGzip   `json:"cose_gzip,omitempty"`
}
