package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cloudx-io/openescrow/core"
	"github.com/cloudx-io/openescrow/validation"
)

func main() {
	// Define CLI flags
	var (
		receiptInput   = flag.String("receipt", "", "Claim response or signed receipt JSON (file path or inline JSON)")
		publicKeyInput = flag.String("public-key", "", "Receipt signing key in PEM format (file path or inline PEM)")
		listingID      = flag.String("listing-id", "", "Expected listing ID")
		winner         = flag.String("winner", "", "Expected winner address")
		amount         = flag.String("amount", "", "Expected settlement amount")
		outputFormat   = flag.String("format", "text", "Output format: text or json")
		help           = flag.Bool("help", false, "Show usage information")
	)

	flag.Parse()

	if *help {
		showUsage()
		os.Exit(0)
	}

	if *receiptInput == "" || *publicKeyInput == "" {
		showUsage()
		fmt.Fprintf(os.Stderr, "\nError: --receipt and --public-key are required\n")
		os.Exit(1)
	}

	receiptJSON, err := readInput(*receiptInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading receipt: %v\n", err)
		os.Exit(2)
	}

	publicKeyPEM, err := readInput(*publicKeyInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading public key: %v\n", err)
		os.Exit(2)
	}

	coseBytes, err := validation.ExtractReceiptCOSE(receiptJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting receipt: %v\n", err)
		os.Exit(2)
	}

	result, err := validation.ValidateSettlementReceipt(&validation.ReceiptValidationInput{
		ReceiptCOSE:       coseBytes,
		PublicKeyPEM:      string(publicKeyPEM),
		ExpectedListingID: *listingID,
		ExpectedWinner:    core.Address(*winner),
		ExpectedAmount:    *amount,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation error: %v\n", err)
		os.Exit(2)
	}

	if *outputFormat == "json" {
		outputJSON(result)
	} else {
		outputText(result)
	}

	if !result.IsValid() {
		os.Exit(1)
	}
	os.Exit(0)
}

func showUsage() {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println()
	fmt.Println("Verifies the signature and settlement hash of an escrow auction receipt.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  receipt-validator --receipt <json> --public-key <pem> [options]")
	fmt.Println()
	fmt.Println("Required Flags:")
	fmt.Println("  --receipt <json>                  claim_result response, POST .../claim body, or bare COSE (base64 or cose_gzip)")
	fmt.Println("  --public-key <pem>                Key from key_request or GET /signing-key")
	fmt.Println()
	fmt.Println("Optional Flags:")
	fmt.Println("  --listing-id <uuid>               Expected listing ID")
	fmt.Println("  --winner <address>                Expected winner")
	fmt.Println("  --amount <decimal>                Expected settlement amount")
	fmt.Println("  --format <text|json>              Output format (default: text)")
	fmt.Println("  --help                            Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  receipt-validator --receipt claim.json --public-key signing-key.pem --winner 0xuser2 --amount 13310")
	fmt.Println()
	fmt.Println("Exit Codes:")
	fmt.Println("  0 - Validation passed")
	fmt.Println("  1 - Validation failed")
	fmt.Println("  2 - Invalid input or runtime error")
}

func readInput(input string) ([]byte, error) {
	// Try reading as file first
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	return []byte(input), nil
}

func outputText(result *validation.ReceiptValidationResult) {
	fmt.Println("Settlement Receipt Validator")
	fmt.Println("============================")
	fmt.Println()

	if r := result.Receipt; r != nil {
		fmt.Println("Receipt:")
		fmt.Printf("  Listing:       %s\n", r.ListingID)
		fmt.Printf("  Asset:         %s/%s\n", r.Registry, r.AssetID)
		fmt.Printf("  Seller:        %s\n", r.Seller)
		fmt.Printf("  Winner:        %s\n", r.Winner)
		fmt.Printf("  Amount:        %s %s\n", r.Amount, r.PaymentToken)
		fmt.Println()
	}

	fmt.Println("Summary:")
	fmt.Printf("  Signature Valid:         %v\n", result.SignatureValid)
	fmt.Printf("  Hash Valid:              %v\n", result.HashValid)
	fmt.Printf("  Expectations Valid:      %v\n", result.ExpectationsValid)

	fmt.Println()
	fmt.Println("Details:")
	for _, detail := range result.ValidationDetails {
		fmt.Printf("  - %s\n", detail)
	}

	fmt.Println()
	fmt.Println("============================")
	if result.IsValid() {
		fmt.Println("VALIDATION: ✓ PASSED")
	} else {
		fmt.Println("VALIDATION: ✗ FAILED")
	}
}

func outputJSON(result *validation.ReceiptValidationResult) {
	output := map[string]any{
		"valid":              result.IsValid(),
		"signature_valid":    result.SignatureValid,
		"hash_valid":         result.HashValid,
		"expectations_valid": result.ExpectationsValid,
		"receipt":            result.Receipt,
		"details":            result.ValidationDetails,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(2)
	}
	fmt.Println(string(data))
}
