package auctionapi

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ReceiptCOSE is a raw COSE_Sign1 message over a SettlementReceipt.
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is a ReceiptCOSE in standard base64, for JSON transport.
type ReceiptCOSEBase64 string

// ReceiptCOSEGzip is a gzip-compressed ReceiptCOSE in unpadded URL-safe
// base64. It fits in a query string or a QR code.
type ReceiptCOSEGzip string

func (c ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(c))
}

// CompressGzip returns the compact form of c. The output is deterministic.
func (c ReceiptCOSE) CompressGzip() (ReceiptCOSEGzip, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := zw.Write(c); err != nil {
		return "", fmt.Errorf("gzip receipt: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip receipt: %w", err)
	}
	return ReceiptCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

func (b ReceiptCOSEBase64) String() string { return string(b) }

func (b ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	raw, err := base64.StdEncoding.DecodeString(string(b))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReceiptCOSE(raw), nil
}

func (g ReceiptCOSEGzip) String() string { return string(g) }

func (g ReceiptCOSEGzip) Decompress() (ReceiptCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(string(g))
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	return ReceiptCOSE(raw), nil
}

// COSEBytes returns the raw COSE message of r, taken from whichever encoding
// is present. COSE wins when both are.
func (r *SignedReceipt) COSEBytes() (ReceiptCOSE, error) {
	switch {
	case r.COSE != "":
		return r.COSE.Decode()
	case r.COSEGzip != "":
		return r.COSEGzip.Decompress()
	default:
		return nil, fmt.Errorf("signed receipt carries no COSE message")
	}
}
