package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Escrow performs the custody transfers of the auction lifecycle and writes
// the resulting records. Every method either commits all of its transfers and
// its record change or none of them.
type Escrow struct {
	account             Address
	minIncreaseFloorBps int64
	store               Store
	tokens              TokenDirectory
	log                 *slog.Logger
}

// NewEscrow creates an Escrow holding custody under account.
func NewEscrow(account Address, minIncreaseFloorBps int64, store Store, tokens TokenDirectory, logger *slog.Logger) *Escrow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Escrow{
		account:             account,
		minIncreaseFloorBps: minIncreaseFloorBps,
		store:               store,
		tokens:              tokens,
		log:                 logger,
	}
}

// Account returns the identity that holds escrowed assets and funds.
func (e *Escrow) Account() Address {
	return e.account
}

// OnCreate validates terms and writes a new listing for key. Nothing is
// transferred: the asset stays with the seller until the first bid.
func (e *Escrow) OnCreate(ctx context.Context, key AuctionKey, seller Address, terms Terms, now time.Time) (*Auction, error) {
	if !terms.StartPrice.IsPositive() {
		return nil, ErrZeroStartPrice
	}
	if !terms.StartPrice.IsInteger() {
		return nil, ErrFractionalAmount
	}
	if terms.MinIncreaseBps < e.minIncreaseFloorBps {
		return nil, ErrIncreaseTooLow
	}
	if terms.BidPeriod <= 0 {
		return nil, ErrInvalidBidPeriod
	}
	if terms.PaymentToken.IsZero() {
		return nil, ErrWrongPaymentToken
	}

	_, err := e.store.Get(ctx, key)
	switch {
	case err == nil:
		return nil, ErrAuctionExists
	case !errors.Is(err, ErrAuctionNotFound):
		return nil, fmt.Errorf("load auction %s: %w", key, err)
	}

	auction := &Auction{
		Key:            key,
		ListingID:      uuid.New(),
		Seller:         seller,
		PaymentToken:   terms.PaymentToken,
		StartPrice:     terms.StartPrice,
		MinIncreaseBps: terms.MinIncreaseBps,
		BidPeriod:      terms.BidPeriod,
		ListedAt:       now,
	}
	if err := e.store.Put(ctx, key, auction); err != nil {
		return nil, fmt.Errorf("store auction %s: %w", key, err)
	}

	e.log.Info("Auction listed",
		"auction", key.String(),
		"listing_id", auction.ListingID,
		"seller", seller,
		"payment_token", terms.PaymentToken,
		"start_price", terms.StartPrice,
		"bid_period", terms.BidPeriod,
		"min_increase_bps", terms.MinIncreaseBps)
	return auction, nil
}

// OnBid applies an admitted bid: records the new highest bid with a renewed
// deadline, refunds the previous highest bidder, captures amount from bidder
// and, on the first bid, escrows the asset.
//
// Approvals, allowances and balances are checked before anything moves. A
// token transfer spends allowance that escrow cannot grant back, so the steps
// run in the order that leaves the least to undo: the refund precedes the
// capture, and the asset moves last.
func (e *Escrow) OnBid(ctx context.Context, auction *Auction, bidder Address, amount decimal.Decimal, now time.Time) (*Auction, error) {
	key := auction.Key
	firstBid := !auction.HasBids()

	ledger, err := e.tokens.TokenLedger(ctx, auction.PaymentToken)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve payment token %s: %w", ErrTransferFailed, auction.PaymentToken, err)
	}

	var registry AssetRegistry
	if firstBid {
		registry, err = e.tokens.AssetRegistry(ctx, key.Registry)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve asset registry %s: %w", ErrTransferFailed, key.Registry, err)
		}
		if err := e.checkAssetApproval(ctx, registry, key, auction.Seller); err != nil {
			return nil, err
		}
	}

	// A raise by the current highest bidder is funded partly by its own refund.
	ownRefund := decimal.Zero
	if bidder == auction.HighestBidder {
		ownRefund = auction.HighestBid
	}
	if err := e.checkFunds(ctx, ledger, auction.PaymentToken, bidder, amount, ownRefund); err != nil {
		return nil, err
	}

	previous := *auction
	updated := *auction
	updated.HighestBid = amount
	updated.HighestBidder = bidder
	updated.Deadline = now.Add(auction.BidPeriod)
	updated.BidCount++

	var journal transferJournal

	if err := e.store.Put(ctx, key, &updated); err != nil {
		return nil, fmt.Errorf("store auction %s: %w", key, err)
	}
	journal.add("restore auction record", func(ctx context.Context) error {
		return e.store.Put(ctx, key, &previous)
	})

	if previous.HasBids() {
		refundee, refund := previous.HighestBidder, previous.HighestBid
		if err := ledger.Transfer(ctx, e.account, refundee, refund); err != nil {
			return nil, e.abort(ctx, &journal, key, fmt.Errorf("%w: refund %s to %s: %w",
				ErrTransferFailed, refund, refundee, err))
		}
		journal.add("reclaim refund from previous bidder", func(ctx context.Context) error {
			return ledger.TransferFrom(ctx, e.account, refundee, e.account, refund)
		})
	}

	if err := ledger.TransferFrom(ctx, e.account, bidder, e.account, amount); err != nil {
		return nil, e.abort(ctx, &journal, key, fmt.Errorf("%w: capture %s from %s: %w", ErrTransferFailed, amount, bidder, err))
	}

	if firstBid {
		journal.add("return bid to bidder", func(ctx context.Context) error {
			return ledger.Transfer(ctx, e.account, bidder, amount)
		})

		seller := auction.Seller
		if err := registry.TransferFrom(ctx, e.account, seller, e.account, key.AssetID); err != nil {
			return nil, e.abort(ctx, &journal, key, fmt.Errorf("%w: escrow asset %s from seller %s: %w", ErrTransferFailed, key, seller, err))
		}
	}

	e.log.Info("Bid accepted",
		"auction", key.String(),
		"bidder", bidder,
		"amount", amount,
		"refunded", previous.HighestBidder,
		"deadline", updated.Deadline)
	return &updated, nil
}

// OnSettle hands the escrowed asset to the highest bidder and the escrowed
// funds to the seller, then clears the record.
//
// checkCustody runs first, so both transfers start from the custody the
// record describes. A delivered asset cannot be reclaimed: if paying the
// seller fails after delivery the record is restored and the error wraps
// ErrEscrowInconsistent.
func (e *Escrow) OnSettle(ctx context.Context, auction *Auction, caller Address, now time.Time) (*Settlement, error) {
	key := auction.Key

	if auction.HasBids() && !auction.Ended(now) {
		return nil, ErrNotEnded
	}
	if caller != auction.HighestBidder {
		return nil, ErrNotHighestBidder
	}
	if !auction.HasBids() {
		return nil, ErrNoBids
	}

	registry, err := e.tokens.AssetRegistry(ctx, key.Registry)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve asset registry %s: %w", ErrTransferFailed, key.Registry, err)
	}
	ledger, err := e.tokens.TokenLedger(ctx, auction.PaymentToken)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve payment token %s: %w", ErrTransferFailed, auction.PaymentToken, err)
	}

	if err := e.checkCustody(ctx, auction, registry, ledger); err != nil {
		return nil, err
	}

	var journal transferJournal
	previous := *auction

	if err := e.store.Clear(ctx, key); err != nil {
		return nil, fmt.Errorf("clear auction %s: %w", key, err)
	}
	journal.add("restore auction record", func(ctx context.Context) error {
		return e.store.Put(ctx, key, &previous)
	})

	winner := auction.HighestBidder
	if err := registry.TransferFrom(ctx, e.account, e.account, winner, key.AssetID); err != nil {
		return nil, e.abort(ctx, &journal, key, fmt.Errorf("%w: deliver asset %s to %s: %w", ErrTransferFailed, key, winner, err))
	}

	// The winner now owns the asset and escrow cannot take it back.
	if err := ledger.Transfer(ctx, e.account, auction.Seller, auction.HighestBid); err != nil {
		return nil, e.abort(ctx, &journal, key, fmt.Errorf("%w: asset %s delivered to %s but paying %s to seller %s failed: %w",
			ErrEscrowInconsistent, key, winner, auction.HighestBid, auction.Seller, err))
	}

	settlement := &Settlement{
		ListingID:    auction.ListingID,
		Key:          key,
		Seller:       auction.Seller,
		Winner:       winner,
		PaymentToken: auction.PaymentToken,
		Amount:       auction.HighestBid,
		SettledAt:    now,
	}

	e.log.Info("Auction settled",
		"auction", key.String(),
		"listing_id", auction.ListingID,
		"winner", winner,
		"seller", auction.Seller,
		"amount", auction.HighestBid)
	return settlement, nil
}

// checkAssetApproval verifies that seller holds the asset for key and has
// let escrow move it.
func (e *Escrow) checkAssetApproval(ctx context.Context, registry AssetRegistry, key AuctionKey, seller Address) error {
	owner, err := registry.OwnerOf(ctx, key.AssetID)
	if err != nil {
		return fmt.Errorf("%w: owner of %s: %w", ErrTransferFailed, key, err)
	}
	if owner != seller {
		return fmt.Errorf("%w: asset %s held by %s, not seller %s", ErrTransferFailed, key, owner, seller)
	}
	if seller == e.account {
		return nil
	}

	approved, err := registry.GetApproved(ctx, key.AssetID)
	if err != nil {
		return fmt.Errorf("%w: approval of %s: %w", ErrTransferFailed, key, err)
	}
	if approved == e.account {
		return nil
	}
	operator, err := registry.IsApprovedForAll(ctx, seller, e.account)
	if err != nil {
		return fmt.Errorf("%w: operators of %s: %w", ErrTransferFailed, seller, err)
	}
	if !operator {
		return fmt.Errorf("%w: escrow %s not approved for asset %s by seller %s", ErrTransferFailed, e.account, key, seller)
	}
	return nil
}

// checkFunds verifies that bidder can pay amount of token to escrow. refund
// is what bidder gets back from escrow before paying.
func (e *Escrow) checkFunds(ctx context.Context, ledger TokenLedger, token, bidder Address, amount, refund decimal.Decimal) error {
	balance, err := ledger.BalanceOf(ctx, bidder)
	if err != nil {
		return fmt.Errorf("%w: balance of %s: %w", ErrTransferFailed, bidder, err)
	}
	if balance.Add(refund).LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, bid is %s", ErrTransferFailed, bidder, balance, token, amount)
	}

	allowance, err := ledger.Allowance(ctx, bidder, e.account)
	if err != nil {
		return fmt.Errorf("%w: allowance of %s: %w", ErrTransferFailed, bidder, err)
	}
	if allowance.LessThan(amount) {
		return fmt.Errorf("%w: %s allows escrow %s of %s, bid is %s", ErrTransferFailed, bidder, allowance, token, amount)
	}
	return nil
}

// checkCustody verifies that escrow holds what the record says it holds
// before anything moves.
func (e *Escrow) checkCustody(ctx context.Context, auction *Auction, registry AssetRegistry, ledger TokenLedger) error {
	owner, err := registry.OwnerOf(ctx, auction.Key.AssetID)
	if err != nil {
		return fmt.Errorf("%w: owner of %s: %w", ErrTransferFailed, auction.Key, err)
	}
	if owner != e.account {
		return fmt.Errorf("%w: asset %s held by %s", ErrEscrowInconsistent, auction.Key, owner)
	}

	balance, err := ledger.BalanceOf(ctx, e.account)
	if err != nil {
		return fmt.Errorf("%w: escrow balance of %s: %w", ErrTransferFailed, auction.PaymentToken, err)
	}
	if balance.LessThan(auction.HighestBid) {
		return fmt.Errorf("%w: escrow holds %s of %s, owes %s",
			ErrEscrowInconsistent, balance, auction.PaymentToken, auction.HighestBid)
	}
	return nil
}

// abort rolls back journal and returns cause, or an ErrEscrowInconsistent
// error if a compensation failed.
func (e *Escrow) abort(ctx context.Context, journal *transferJournal, key AuctionKey, cause error) error {
	rollbackErr := journal.rollback(context.WithoutCancel(ctx))
	switch {
	case rollbackErr == nil && errors.Is(cause, ErrEscrowInconsistent):
		e.log.Error("Escrow left inconsistent", "auction", key.String(), "cause", cause)
		return cause
	case rollbackErr == nil:
		e.log.Info("Escrow operation rolled back", "auction", key.String(), "cause", cause)
		return cause
	}

	e.log.Error("Escrow rollback incomplete",
		"auction", key.String(),
		"cause", cause,
		"rollback_error", rollbackErr)
	return fmt.Errorf("%w: %w", ErrEscrowInconsistent, errors.Join(cause, rollbackErr))
}

// transferJournal records compensations for the steps of one operation.
type transferJournal struct {
	steps []compensation
}

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

func (j *transferJournal) add(name string, undo func(ctx context.Context) error) {
	j.steps = append(j.steps, compensation{name: name, undo: undo})
}

// rollback runs the compensations newest first. It keeps going after a
// failure so that as much as possible is restored.
func (j *transferJournal) rollback(ctx context.Context) error {
	var errs []error
	for i := len(j.steps) - 1; i >= 0; i-- {
		step := j.steps[i]
		if err := step.undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	j.steps = nil
	return errors.Join(errs...)
}
