package validation

import "github.com/cloudx-io/openescrow/auctionapi"

// ReceiptValidationResult contains the outcome of each check on a settlement receipt.
type ReceiptValidationResult struct {
	SignatureValid    bool
	HashValid         bool
	ExpectationsValid bool
	ValidationDetails []string

	// Receipt is the decoded COSE payload, set whenever the payload parsed.
	Receipt *auctionapi.SettlementReceipt
}

// IsValid returns true if all receipt checks passed
func (r *ReceiptValidationResult) IsValid() bool {
	return r.SignatureValid && r.HashValid && r.ExpectationsValid
}
