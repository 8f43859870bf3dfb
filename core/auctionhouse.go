package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Protocol defaults.
const (
	DefaultBidPeriod                 = 24 * time.Hour
	DefaultMinIncreaseBps      int64 = 1000
	DefaultMinIncreaseFloorBps int64 = 500
)

// ErrMissingCaller is returned when an operation is invoked without a caller identity.
var ErrMissingCaller = errors.New("caller identity required")

// Config holds the protocol parameters of an AuctionHouse.
type Config struct {
	// Administrator is the only identity allowed to create default auctions.
	Administrator Address

	// EscrowAccount holds assets and funds while auctions are active.
	EscrowAccount Address

	// DefaultBidPeriod and DefaultMinIncreaseBps are the terms of default auctions.
	DefaultBidPeriod      time.Duration
	DefaultMinIncreaseBps int64

	// MinIncreaseFloorBps is the lowest MinIncreaseBps a listing may use.
	MinIncreaseFloorBps int64
}

// withDefaults fills unset numeric parameters.
func (c Config) withDefaults() Config {
	if c.DefaultBidPeriod == 0 {
		c.DefaultBidPeriod = DefaultBidPeriod
	}
	if c.DefaultMinIncreaseBps == 0 {
		c.DefaultMinIncreaseBps = DefaultMinIncreaseBps
	}
	if c.MinIncreaseFloorBps == 0 {
		c.MinIncreaseFloorBps = DefaultMinIncreaseFloorBps
	}
	return c
}

// Validate checks that the configuration can run an auction house.
func (c Config) Validate() error {
	if c.Administrator.IsZero() {
		return fmt.Errorf("administrator address is required")
	}
	if c.EscrowAccount.IsZero() {
		return fmt.Errorf("escrow account address is required")
	}
	if c.DefaultBidPeriod <= 0 {
		return fmt.Errorf("default bid period must be positive, got %s", c.DefaultBidPeriod)
	}
	if c.MinIncreaseFloorBps < 0 {
		return fmt.Errorf("minimum increase floor must not be negative, got %d", c.MinIncreaseFloorBps)
	}
	if c.DefaultMinIncreaseBps < c.MinIncreaseFloorBps {
		return fmt.Errorf("default minimum increase %d bps is below floor %d bps", c.DefaultMinIncreaseBps, c.MinIncreaseFloorBps)
	}
	return nil
}

// AuctionHouse is the operation surface for listing, bidding and settlement.
// Operations run one at a time; each one either completes with all its
// transfers or leaves no trace.
type AuctionHouse struct {
	mu     sync.Mutex
	cfg    Config
	store  Store
	escrow *Escrow
	clock  func() time.Time
	log    *slog.Logger
}

// NewAuctionHouse builds an AuctionHouse over store, moving tokens through the
// adapters resolved by tokens.
func NewAuctionHouse(cfg Config, store Store, tokens TokenDirectory, logger *slog.Logger) (*AuctionHouse, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auction house config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("auction store is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AuctionHouse{
		cfg:    cfg,
		store:  store,
		escrow: NewEscrow(cfg.EscrowAccount, cfg.MinIncreaseFloorBps, store, tokens, logger),
		clock:  time.Now,
		log:    logger,
	}, nil
}

// WithClock overrides the clock used to evaluate deadlines.
func (h *AuctionHouse) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock = clock
}

// Config returns the effective configuration.
func (h *AuctionHouse) Config() Config {
	return h.cfg
}

// CreateAuction lists listing.Key with caller as seller.
func (h *AuctionHouse) CreateAuction(ctx context.Context, caller Address, listing Listing) (*Auction, error) {
	if caller.IsZero() {
		return nil, ErrMissingCaller
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	auction, err := h.escrow.OnCreate(ctx, listing.Key, caller, listing.Terms, h.clock())
	if err != nil {
		h.log.Info("Listing rejected", "auction", listing.Key.String(), "seller", caller, "reason", err)
		return nil, err
	}
	return auction, nil
}

// CreateDefaultAuction lists key with the protocol's default bid period and
// increase. Only the administrator may call it, and becomes the seller.
func (h *AuctionHouse) CreateDefaultAuction(ctx context.Context, caller Address, key AuctionKey, paymentToken Address, startPrice decimal.Decimal) (*Auction, error) {
	if caller != h.cfg.Administrator {
		h.log.Info("Default listing refused", "auction", key.String(), "caller", caller)
		return nil, ErrNotAdministrator
	}

	return h.CreateAuction(ctx, caller, Listing{
		Key: key,
		Terms: Terms{
			PaymentToken:   paymentToken,
			StartPrice:     startPrice,
			BidPeriod:      h.cfg.DefaultBidPeriod,
			MinIncreaseBps: h.cfg.DefaultMinIncreaseBps,
		},
	})
}

// PlaceBid validates and applies a bid of amount in token on key.
func (h *AuctionHouse) PlaceBid(ctx context.Context, bidder Address, key AuctionKey, token Address, amount decimal.Decimal) (*Auction, error) {
	if bidder.IsZero() {
		return nil, ErrMissingCaller
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	auction, err := h.load(ctx, key)
	if err != nil && !errors.Is(err, ErrAuctionNotFound) {
		return nil, err
	}

	now := h.clock()
	if err := AdmitBid(auction, bidder, token, amount, now); err != nil {
		h.log.Info("Bid rejected", "auction", key.String(), "bidder", bidder, "amount", amount, "reason", err)
		return nil, err
	}

	return h.escrow.OnBid(ctx, auction, bidder, amount, now)
}

// ClaimResult settles an ended auction on behalf of its highest bidder.
func (h *AuctionHouse) ClaimResult(ctx context.Context, caller Address, key AuctionKey) (*Settlement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	auction, err := h.load(ctx, key)
	if err != nil {
		return nil, err
	}

	settlement, err := h.escrow.OnSettle(ctx, auction, caller, h.clock())
	if err != nil {
		h.log.Info("Claim rejected", "auction", key.String(), "caller", caller, "reason", err)
		return nil, err
	}
	return settlement, nil
}

// Auction returns the record for key. An unlisted key yields a record with
// every field at its default.
func (h *AuctionHouse) Auction(ctx context.Context, key AuctionKey) (Auction, error) {
	auction, err := h.load(ctx, key)
	if errors.Is(err, ErrAuctionNotFound) {
		return Auction{Key: key}, nil
	}
	if err != nil {
		return Auction{}, err
	}
	return *auction, nil
}

// Auctions returns every listed auction.
func (h *AuctionHouse) Auctions(ctx context.Context) ([]Auction, error) {
	auctions, err := h.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return auctions, nil
}

// Now returns the house clock's current time.
func (h *AuctionHouse) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock()
}

func (h *AuctionHouse) Seller(ctx context.Context, key AuctionKey) (Address, error) {
	auction, err := h.Auction(ctx, key)
	return auction.Seller, err
}

func (h *AuctionHouse) HighestBid(ctx context.Context, key AuctionKey) (decimal.Decimal, error) {
	auction, err := h.Auction(ctx, key)
	return auction.HighestBid, err
}

func (h *AuctionHouse) HighestBidder(ctx context.Context, key AuctionKey) (Address, error) {
	auction, err := h.Auction(ctx, key)
	return auction.HighestBidder, err
}

func (h *AuctionHouse) Deadline(ctx context.Context, key AuctionKey) (time.Time, error) {
	auction, err := h.Auction(ctx, key)
	return auction.Deadline, err
}

func (h *AuctionHouse) StartPrice(ctx context.Context, key AuctionKey) (decimal.Decimal, error) {
	auction, err := h.Auction(ctx, key)
	return auction.StartPrice, err
}

func (h *AuctionHouse) BidPeriod(ctx context.Context, key AuctionKey) (time.Duration, error) {
	auction, err := h.Auction(ctx, key)
	return auction.BidPeriod, err
}

// MinimumNextBid returns the smallest amount a bid on key must offer, or zero
// if key is not listed.
func (h *AuctionHouse) MinimumNextBid(ctx context.Context, key AuctionKey) (decimal.Decimal, error) {
	auction, err := h.Auction(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return MinimumNextBid(&auction), nil
}

func (h *AuctionHouse) load(ctx context.Context, key AuctionKey) (*Auction, error) {
	auction, err := h.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrAuctionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load auction %s: %w", key, err)
	}
	return auction, nil
}
