package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudx-io/openescrow/auctionapi"
)

// ExtractReceiptCOSE finds the COSE receipt in input. It accepts:
//   - a stream claim response ({"receipt": {"cose": ...}})
//   - an HTTP claim body ({"cose": ..., "cose_gzip": ...})
//   - a bare COSE string, in standard base64 or the compact gzip form
func ExtractReceiptCOSE(input []byte) (auctionapi.ReceiptCOSE, error) {
	trimmed := strings.TrimSpace(string(input))
	if trimmed == "" {
		return nil, fmt.Errorf("empty receipt")
	}

	if !strings.HasPrefix(trimmed, "{") {
		if raw, err := auctionapi.ReceiptCOSEGzip(trimmed).Decompress(); err == nil {
			return raw, nil
		}
		return auctionapi.ReceiptCOSEBase64(trimmed).Decode()
	}

	var response auctionapi.AuctionResponse
	if err := json.Unmarshal([]byte(trimmed), &response); err == nil && response.Receipt != nil {
		if raw, err := response.Receipt.COSEBytes(); err == nil {
			return raw, nil
		}
	}

	var signed auctionapi.SignedReceipt
	if err := json.Unmarshal([]byte(trimmed), &signed); err != nil {
		return nil, fmt.Errorf("parse receipt JSON: %w", err)
	}
	return signed.COSEBytes()
}
