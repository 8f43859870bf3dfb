// Package server exposes an AuctionHouse over a one-request-per-connection
// JSON stream protocol, on TCP or vsock.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/openescrow/auctionapi"
	"github.com/cloudx-io/openescrow/core"
)

const (
	defaultMaxWorkers  = 16
	defaultReadTimeout = 30 * time.Second
	maxRequestBytes    = 1 << 20

	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Options tunes the connection handling of a Server.
type Options struct {
	// MaxWorkers bounds concurrently handled connections. Connections beyond
	// it are closed immediately.
	MaxWorkers int

	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout time.Duration
}

// Server dispatches stream requests to an AuctionHouse.
type Server struct {
	house *core.AuctionHouse
	keys  *KeyManager
	opts  Options
	log   *slog.Logger
}

// New creates a Server. keys signs settlement receipts and answers key requests.
func New(house *core.AuctionHouse, keys *KeyManager, opts Options, logger *slog.Logger) *Server {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = defaultMaxWorkers
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{house: house, keys: keys, opts: opts, log: logger}
}

// Serve accepts connections on listener until ctx is cancelled, then closes
// the listener and returns nil.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Error("Failed to close listener", "error", err)
		}
	}()

	s.log.Info("Auction server listening", "address", listener.Addr().String(), "max_workers", s.opts.MaxWorkers)
	semaphore := make(chan struct{}, s.opts.MaxWorkers)

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.log.Info("Auction server stopped")
				return nil
			}

			backoff = min(max(2*backoff, minAcceptBackoff), maxAcceptBackoff)
			s.log.Error("Failed to accept connection", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				s.log.Info("Auction server stopped")
				return nil
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		// Acquire worker slot - immediate rejection if pool full
		select {
		case semaphore <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-semaphore }()
				s.handleConnection(ctx, c)
			}(conn)
		default:
			s.log.Info("No workers available, rejecting connection (pool full)")
			if err := conn.Close(); err != nil {
				s.log.Error("Failed to close rejected connection", "error", err)
			}
		}
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Panic recovered in handleConnection", "panic", r)
		}
		if err := conn.Close(); err != nil {
			s.log.Error("Failed to close connection", "error", err)
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))

	var raw json.RawMessage
	if err := json.NewDecoder(io.LimitReader(conn, maxRequestBytes)).Decode(&raw); err != nil {
		s.log.Error("Failed to read request", "error", err)
		s.writeResponse(conn, "", errorResponse(fmt.Sprintf("Failed to read request: %v", err)))
		return
	}

	var req auctionapi.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.log.Error("Failed to decode request", "error", err)
		s.writeResponse(conn, "", errorResponse(fmt.Sprintf("Failed to decode request: %v", err)))
		return
	}

	s.writeResponse(conn, req.Type, s.Handle(ctx, req))
}

func (s *Server) writeResponse(conn net.Conn, reqType string, response any) {
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.log.Error("Failed to encode response", "type", reqType, "error", err)
		return
	}
	s.log.Debug("Sent response", "type", reqType)
}

// Handle executes one request and returns the value to encode as the response.
func (s *Server) Handle(ctx context.Context, req auctionapi.Request) any {
	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID, "type", req.Type)
	log.Info("Received request", "caller", req.Caller)

	switch req.Type {
	case auctionapi.TypePing:
		return map[string]any{
			"type":      "pong",
			"message":   "auction server is healthy",
			"timestamp": s.house.Now().Unix(),
		}

	case auctionapi.TypeKeyRequest:
		publicKeyPEM, err := s.keys.PublicKeyPEM()
		if err != nil {
			log.Error("Key request failed", "error", err)
			return errorResponse(fmt.Sprintf("Key request failed: %v", err))
		}
		return &auctionapi.KeyResponse{
			Type:         "key_response",
			KeyAlgorithm: KeyAlgorithm,
			PublicKey:    publicKeyPEM,
		}

	case auctionapi.TypeCreateAuction,
		auctionapi.TypeCreateDefaultAuction,
		auctionapi.TypePlaceBid,
		auctionapi.TypeClaimResult,
		auctionapi.TypeGetAuction,
		auctionapi.TypeListAuctions:
		start := time.Now()
		response := s.handleAuction(ctx, req)
		response.ProcessingTime = time.Since(start).Milliseconds()
		if response.Success {
			log.Info("Request processed", "auction", req.Key().String())
		} else {
			log.Info("Request failed", "auction", req.Key().String(), "reason", response.Message)
		}
		return response

	default:
		log.Info("Unknown request type")
		return errorResponse(fmt.Sprintf("Unknown request type: %s", req.Type))
	}
}

func (s *Server) handleAuction(ctx context.Context, req auctionapi.Request) *auctionapi.AuctionResponse {
	response := &auctionapi.AuctionResponse{Type: req.Type + "_response"}
	fail := func(err error) *auctionapi.AuctionResponse {
		response.Message = err.Error()
		return response
	}

	var auction *core.Auction
	switch req.Type {
	case auctionapi.TypeCreateAuction:
		created, err := s.house.CreateAuction(ctx, req.Caller, req.Listing())
		if err != nil {
			return fail(err)
		}
		auction = created

	case auctionapi.TypeCreateDefaultAuction:
		created, err := s.house.CreateDefaultAuction(ctx, req.Caller, req.Key(), req.PaymentToken, req.StartPrice)
		if err != nil {
			return fail(err)
		}
		auction = created

	case auctionapi.TypePlaceBid:
		updated, err := s.house.PlaceBid(ctx, req.Caller, req.Key(), req.PaymentToken, req.Amount)
		if err != nil {
			return fail(err)
		}
		auction = updated

	case auctionapi.TypeClaimResult:
		settlement, err := s.house.ClaimResult(ctx, req.Caller, req.Key())
		if err != nil {
			return fail(err)
		}
		receipt, err := s.keys.SignSettlement(*settlement)
		if err != nil {
			// The settlement already happened; report it without a receipt.
			s.log.Error("Failed to sign settlement receipt", "auction", req.Key().String(), "error", err)
			response.Success = true
			response.Message = "settled; receipt unavailable"
			return response
		}
		response.Success = true
		response.Message = "settled"
		response.Receipt = receipt
		return response

	case auctionapi.TypeGetAuction:
		current, err := s.house.Auction(ctx, req.Key())
		if err != nil {
			return fail(err)
		}
		auction = &current

	case auctionapi.TypeListAuctions:
		auctions, err := s.house.Auctions(ctx)
		if err != nil {
			return fail(err)
		}
		now := s.house.Now()
		response.Auctions = make([]auctionapi.AuctionView, 0, len(auctions))
		for _, a := range auctions {
			response.Auctions = append(response.Auctions, auctionapi.NewAuctionView(a, now))
		}
		response.Success = true
		response.Message = fmt.Sprintf("%d auctions", len(auctions))
		return response
	}

	view := auctionapi.NewAuctionView(*auction, s.house.Now())
	response.Auction = &view
	response.Success = true
	response.Message = "ok"
	return response
}

func errorResponse(message string) map[string]any {
	return map[string]any{
		"type":    "error",
		"message": message,
	}
}
