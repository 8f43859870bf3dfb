// Package httpapi serves an AuctionHouse over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cloudx-io/openescrow/auctionapi"
	"github.com/cloudx-io/openescrow/core"
)

// CallerHeader carries the identity a request acts for. Whatever fronts the
// API is responsible for authenticating it.
const CallerHeader = "X-Caller-Address"

// ReceiptSigner signs settlements and publishes its verification key.
type ReceiptSigner interface {
	SignSettlement(core.Settlement) (*auctionapi.SignedReceipt, error)
	PublicKeyPEM() (string, error)
}

// Handler exposes auction operations as HTTP routes.
type Handler struct {
	house  *core.AuctionHouse
	signer ReceiptSigner
	log    *slog.Logger
}

func NewHandler(house *core.AuctionHouse, signer ReceiptSigner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{house: house, signer: signer, log: logger}
}

// RegisterRoutes registers the auction routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/livez", h.livez)
	r.Get("/signing-key", h.signingKey)

	r.Route("/auctions", func(r chi.Router) {
		r.Get("/", h.listAuctions)
		r.Post("/", h.createAuction)
		r.Post("/default", h.createDefaultAuction)
		r.Get("/{registry}/{assetID}", h.getAuction)
		r.Post("/{registry}/{assetID}/bids", h.placeBid)
		r.Post("/{registry}/{assetID}/claim", h.claimResult)
	})
}

// Router returns a chi router with the routes registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) livez(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) signingKey(w http.ResponseWriter, r *http.Request) {
	publicKey, err := h.signer.PublicKeyPEM()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(publicKey))
}

func (h *Handler) listAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.house.Auctions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	now := h.house.Now()
	views := make([]auctionapi.AuctionView, 0, len(auctions))
	for _, a := range auctions {
		views = append(views, auctionapi.NewAuctionView(a, now))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getAuction(w http.ResponseWriter, r *http.Request) {
	key := auctionKey(r)
	auction, err := h.house.Auction(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionapi.NewAuctionView(auction, h.house.Now()))
}

func (h *Handler) createAuction(w http.ResponseWriter, r *http.Request) {
	var req auctionapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	auction, err := h.house.CreateAuction(r.Context(), caller(r), req.Listing())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, auctionapi.NewAuctionView(*auction, h.house.Now()))
}

func (h *Handler) createDefaultAuction(w http.ResponseWriter, r *http.Request) {
	var req auctionapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	auction, err := h.house.CreateDefaultAuction(r.Context(), caller(r), req.Key(), req.PaymentToken, req.StartPrice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, auctionapi.NewAuctionView(*auction, h.house.Now()))
}

func (h *Handler) placeBid(w http.ResponseWriter, r *http.Request) {
	var req auctionapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	auction, err := h.house.PlaceBid(r.Context(), caller(r), auctionKey(r), req.PaymentToken, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionapi.NewAuctionView(*auction, h.house.Now()))
}

func (h *Handler) claimResult(w http.ResponseWriter, r *http.Request) {
	key := auctionKey(r)
	settlement, err := h.house.ClaimResult(r.Context(), caller(r), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	receipt, err := h.signer.SignSettlement(*settlement)
	if err != nil {
		// Settled regardless; return the unsigned receipt.
		h.log.Error("Failed to sign settlement receipt", "auction", key.String(), "error", err)
		writeJSON(w, http.StatusOK, &auctionapi.SignedReceipt{Receipt: auctionapi.NewSettlementReceipt(*settlement)})
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	log := h.log.With("request_id", middleware.GetReqID(r.Context()), "method", r.Method, "path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "status", status, "error", err)
	} else {
		log.Info("Request rejected", "status", status, "reason", err.Error())
	}
	writeError(w, status, err.Error())
}

// StatusFor maps an auction house error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEscrowInconsistent):
		return http.StatusInternalServerError
	case errors.Is(err, core.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrMissingCaller):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNotAdministrator),
		errors.Is(err, core.ErrNotHighestBidder):
		return http.StatusForbidden
	case errors.Is(err, core.ErrAuctionExists),
		errors.Is(err, core.ErrAuctionEnded),
		errors.Is(err, core.ErrNotEnded),
		errors.Is(err, core.ErrNoBids):
		return http.StatusConflict
	case errors.Is(err, core.ErrZeroStartPrice),
		errors.Is(err, core.ErrIncreaseTooLow),
		errors.Is(err, core.ErrInvalidBidPeriod),
		errors.Is(err, core.ErrSellerBid),
		errors.Is(err, core.ErrWrongPaymentToken),
		errors.Is(err, core.ErrBelowStartPrice),
		errors.Is(err, core.ErrBelowMinIncrease),
		errors.Is(err, core.ErrFractionalAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func auctionKey(r *http.Request) core.AuctionKey {
	return core.AuctionKey{
		Registry: core.Address(chi.URLParam(r, "registry")),
		AssetID:  chi.URLParam(r, "assetID"),
	}
}

func caller(r *http.Request) core.Address {
	return core.Address(r.Header.Get(CallerHeader))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
