package pebblestore

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/core"
)

// recordVersion is bumped whenever the on-disk layout of record changes.
const recordVersion = 1

// record is the on-disk form of a core.Auction. Amounts are kept as canonical
// decimal strings and times as Unix nanoseconds so that records round-trip
// exactly.
type record struct {
	Version        int    `cbor:"1,keyasint"`
	Registry       string `cbor:"2,keyasint"`
	AssetID        string `cbor:"3,keyasint"`
	ListingID      []byte `cbor:"4,keyasint"`
	Seller         string `cbor:"5,keyasint"`
	PaymentToken   string `cbor:"6,keyasint"`
	StartPrice     string `cbor:"7,keyasint"`
	MinIncreaseBps int64  `cbor:"8,keyasint"`
	BidPeriod      int64  `cbor:"9,keyasint"`
	Deadline       int64  `cbor:"10,keyasint,omitempty"`
	HighestBid     string `cbor:"11,keyasint"`
	HighestBidder  string `cbor:"12,keyasint,omitempty"`
	BidCount       int    `cbor:"13,keyasint"`
	ListedAt       int64  `cbor:"14,keyasint,omitempty"`
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("pebblestore: cbor encoding mode: %v", err))
	}
	return mode
}

func encodeAuction(a *core.Auction) ([]byte, error) {
	r := record{
		Version:        recordVersion,
		Registry:       string(a.Key.Registry),
		AssetID:        a.Key.AssetID,
		ListingID:      a.ListingID[:],
		Seller:         string(a.Seller),
		PaymentToken:   string(a.PaymentToken),
		StartPrice:     a.StartPrice.String(),
		MinIncreaseBps: a.MinIncreaseBps,
		BidPeriod:      int64(a.BidPeriod),
		Deadline:       unixNano(a.Deadline),
		HighestBid:     a.HighestBid.String(),
		HighestBidder:  string(a.HighestBidder),
		BidCount:       a.BidCount,
		ListedAt:       unixNano(a.ListedAt),
	}
	return encMode.Marshal(r)
}

func decodeAuction(data []byte) (*core.Auction, error) {
	var r record
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode auction record: %w", err)
	}
	if r.Version != recordVersion {
		return nil, fmt.Errorf("unsupported auction record version %d", r.Version)
	}

	listingID, err := uuid.FromBytes(r.ListingID)
	if err != nil {
		return nil, fmt.Errorf("decode listing id: %w", err)
	}
	startPrice, err := decimal.NewFromString(r.StartPrice)
	if err != nil {
		return nil, fmt.Errorf("decode start price: %w", err)
	}
	highestBid, err := decimal.NewFromString(r.HighestBid)
	if err != nil {
		return nil, fmt.Errorf("decode highest bid: %w", err)
	}

	return &core.Auction{
		Key:            core.AuctionKey{Registry: core.Address(r.Registry), AssetID: r.AssetID},
		ListingID:      listingID,
		Seller:         core.Address(r.Seller),
		PaymentToken:   core.Address(r.PaymentToken),
		StartPrice:     startPrice,
		MinIncreaseBps: r.MinIncreaseBps,
		BidPeriod:      time.Duration(r.BidPeriod),
		Deadline:       fromUnixNano(r.Deadline),
		HighestBid:     highestBid,
		HighestBidder:  core.Address(r.HighestBidder),
		BidCount:       r.BidCount,
		ListedAt:       fromUnixNano(r.ListedAt),
	}, nil
}

// unixNano maps the zero time to 0 so that unset deadlines stay unset.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
