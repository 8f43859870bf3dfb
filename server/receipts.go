package server

import (
	"crypto/rand"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openescrow/auctionapi"
	"github.com/cloudx-io/openescrow/core"
)

// ReceiptContentType is the COSE content type of receipt payloads.
const ReceiptContentType = "application/cbor"

var receiptEncMode = mustReceiptEncMode()

func mustReceiptEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: cbor encoding mode: %v", err))
	}
	return mode
}

// SignSettlement builds the receipt for s and signs its CBOR encoding as a
// COSE_Sign1 message.
func (km *KeyManager) SignSettlement(s core.Settlement) (*auctionapi.SignedReceipt, error) {
	receipt := auctionapi.NewSettlementReceipt(s)

	payload, err := receiptEncMode.Marshal(receipt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode receipt: %w", err)
	}

	signer, err := cose.NewSigner(cose.AlgorithmES256, km.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES256)
	msg.Headers.Protected[cose.HeaderLabelContentType] = ReceiptContentType
	msg.Headers.Unprotected[cose.HeaderLabelKeyID] = km.keyID
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("failed to sign receipt: %w", err)
	}

	coseBytes, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to encode COSE message: %w", err)
	}

	compact, err := auctionapi.ReceiptCOSE(coseBytes).CompressGzip()
	if err != nil {
		return nil, fmt.Errorf("failed to compress COSE message: %w", err)
	}

	return &auctionapi.SignedReceipt{
		Receipt:  receipt,
		COSE:     auctionapi.ReceiptCOSE(coseBytes).EncodeBase64(),
		COSEGzip: compact,
	}, nil
}
