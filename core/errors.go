package core

import "errors"

// Listing preconditions.
var (
	ErrZeroStartPrice   = errors.New("starting price cannot be zero")
	ErrIncreaseTooLow   = errors.New("bid increase percentage too low")
	ErrInvalidBidPeriod = errors.New("bid period must be positive")
	ErrAuctionExists    = errors.New("auction already exists for asset")
)

// Bid admissibility.
var (
	ErrAuctionNotFound   = errors.New("auction does not exist for asset")
	ErrAuctionEnded      = errors.New("auction ended")
	ErrSellerBid         = errors.New("seller cannot bid on own asset")
	ErrWrongPaymentToken = errors.New("wrong payment token")
	ErrBelowStartPrice   = errors.New("below starting price")
	ErrBelowMinIncrease  = errors.New("bid amount below previous bid plus minimum increase")

	// ErrFractionalAmount rejects start prices and bids that are not a whole
	// number of token base units.
	ErrFractionalAmount = errors.New("amount must be a whole number of token base units")
)

// Authorization and timing.
var (
	ErrNotAdministrator = errors.New("caller is not administrator")
	ErrNotHighestBidder = errors.New("caller is not the highest bidder")
	ErrNotEnded         = errors.New("auction not ended yet")
	ErrNoBids           = errors.New("auction has no bids")
)

// Escrow transfers.
var (
	// ErrTransferFailed wraps a refusal from a token or asset adapter. The
	// operation that saw it has been rolled back.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrEscrowInconsistent means a rollback could not be completed and
	// custody needs manual reconciliation.
	ErrEscrowInconsistent = errors.New("escrow rollback incomplete")
)
