package core

import (
	"crypto/sha256"
	"fmt"
)

// ComputeKeyHash computes a fixed-length digest of an auction key, used by
// stores that need keys free of separator characters.
//
// Formula: SHA256(registry + "|" + asset_id)
func ComputeKeyHash(key AuctionKey) string {
	data := fmt.Sprintf("%s|%s", key.Registry, key.AssetID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeSettlementHash computes the digest embedded in settlement receipts.
// This is used by the server (to sign receipts) and validation (to verify them).
//
// Formula: SHA256(listing_id | registry | asset_id | seller | winner | payment_token | amount | settled_at_unix)
//
// The amount is rendered with its canonical decimal string so that 11000 and
// 11000.0 hash identically.
func ComputeSettlementHash(s Settlement) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%d",
		s.ListingID, s.Key.Registry, s.Key.AssetID, s.Seller, s.Winner,
		s.PaymentToken, s.Amount.String(), s.SettledAt.Unix())
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
