package validation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/auctionapi"
	"github.com/cloudx-io/openescrow/core"
)

// ErrInvalidReceipt is returned by VerifyReceipt when a check fails.
var ErrInvalidReceipt = errors.New("invalid settlement receipt")

// ReceiptValidationInput contains all inputs needed for receipt validation.
// Expected fields are optional; empty ones are not checked.
type ReceiptValidationInput struct {
	ReceiptCOSE  auctionapi.ReceiptCOSE
	PublicKeyPEM string

	ExpectedListingID string
	ExpectedWinner    core.Address
	ExpectedAmount    string
}

// ValidateSettlementReceipt validates a signed settlement receipt and verifies:
// - The COSE signature was made by the given key
// - The settlement hash matches the receipt fields
// - Listing ID, winner and amount match what the caller expects
//
// Returns:
//   - ReceiptValidationResult with detailed results (call result.IsValid() to check overall status)
//   - error if validation cannot be performed (e.g., malformed message or key)
func ValidateSettlementReceipt(input *ReceiptValidationInput) (*ReceiptValidationResult, error) {
	publicKey, err := ParsePublicKeyPEM(input.PublicKeyPEM)
	if err != nil {
		return nil, err
	}

	msg, err := ParseReceiptCOSE(input.ReceiptCOSE)
	if err != nil {
		return nil, err
	}

	receipt, err := ExtractReceipt(msg)
	if err != nil {
		return nil, err
	}

	result := &ReceiptValidationResult{Receipt: receipt}

	if err := VerifyCOSESignature(msg, publicKey); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, err.Error())
	} else {
		result.SignatureValid = true
		result.ValidationDetails = append(result.ValidationDetails, "Signature validation passed")
	}

	result.HashValid = validateSettlementHash(receipt, result)
	result.ExpectationsValid = validateExpectations(input, receipt, result)

	return result, nil
}

// VerifyReceipt decodes a base64 COSE receipt, checks its signature and hash
// against publicKeyPEM and returns the receipt. Failed checks are reported as
// ErrInvalidReceipt.
func VerifyReceipt(receiptCOSE auctionapi.ReceiptCOSEBase64, publicKeyPEM string) (*auctionapi.SettlementReceipt, error) {
	coseBytes, err := receiptCOSE.Decode()
	if err != nil {
		return nil, err
	}

	result, err := ValidateSettlementReceipt(&ReceiptValidationInput{
		ReceiptCOSE:  coseBytes,
		PublicKeyPEM: publicKeyPEM,
	})
	if err != nil {
		return nil, err
	}
	if !result.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceipt, result.ValidationDetails)
	}
	return result.Receipt, nil
}

func validateSettlementHash(receipt *auctionapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	settlement, err := receipt.Settlement()
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Receipt fields malformed: %v", err))
		return false
	}

	computed := core.ComputeSettlementHash(settlement)
	if computed == receipt.SettlementHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Settlement hash validation passed: %s", computed))
		return true
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Settlement hash mismatch: computed %s, receipt has %s", computed, receipt.SettlementHash))
	return false
}

func validateExpectations(input *ReceiptValidationInput, receipt *auctionapi.SettlementReceipt, result *ReceiptValidationResult) bool {
	valid := true

	if input.ExpectedListingID != "" && input.ExpectedListingID != receipt.ListingID {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Listing mismatch: expected %s, receipt has %s", input.ExpectedListingID, receipt.ListingID))
		valid = false
	}

	if input.ExpectedWinner != "" && input.ExpectedWinner != receipt.Winner {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Winner mismatch: expected %s, receipt has %s", input.ExpectedWinner, receipt.Winner))
		valid = false
	}

	if input.ExpectedAmount != "" {
		expected, err := decimal.NewFromString(input.ExpectedAmount)
		if err != nil {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Expected amount %q is not a number", input.ExpectedAmount))
			valid = false
		} else if actual, err := decimal.NewFromString(receipt.Amount); err != nil || !expected.Equal(actual) {
			result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Amount mismatch: expected %s, receipt has %s", input.ExpectedAmount, receipt.Amount))
			valid = false
		}
	}

	if valid {
		result.ValidationDetails = append(result.ValidationDetails, "Expectation checks passed")
	}
	return valid
}
