package validation

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/cloudx-io/openescrow/auctionapi"
)

// ParsePublicKeyPEM parses a PKIX "PUBLIC KEY" PEM block holding an ECDSA key,
// as served by the signing-key endpoints.
func ParsePublicKeyPEM(publicKeyPEM string) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in public key")
	}
	if block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not ECDSA", parsed)
	}
	return key, nil
}

// ParseReceiptCOSE decodes a tagged COSE_Sign1 receipt message without
// verifying it.
func ParseReceiptCOSE(coseBytes auctionapi.ReceiptCOSE) (*cose.Sign1Message, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(coseBytes); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	return &msg, nil
}

// ExtractReceipt decodes the settlement receipt carried in msg's payload.
func ExtractReceipt(msg *cose.Sign1Message) (*auctionapi.SettlementReceipt, error) {
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("COSE message has no payload")
	}
	var receipt auctionapi.SettlementReceipt
	if err := cbor.Unmarshal(msg.Payload, &receipt); err != nil {
		return nil, fmt.Errorf("parse receipt payload: %w", err)
	}
	return &receipt, nil
}

// VerifyCOSESignature verifies an ES256 COSE_Sign1 signature against publicKey.
func VerifyCOSESignature(msg *cose.Sign1Message, publicKey *ecdsa.PublicKey) error {
	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return fmt.Errorf("read COSE algorithm: %w", err)
	}
	if alg != cose.AlgorithmES256 {
		return fmt.Errorf("unexpected COSE algorithm %v", alg)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES256, publicKey)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	if err := msg.Verify(nil, verifier); err != nil {
		return fmt.Errorf("COSE signature verification failed: %w", err)
	}
	return nil
}
