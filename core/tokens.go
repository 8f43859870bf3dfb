package core

import (
	"context"

	"github.com/shopspring/decimal"
)

// AssetRegistry is the port to a unique-asset contract (ERC-721 semantics).
// TransferFrom moves assetID from `from` to `to` on behalf of operator and
// must fail unless operator is the owner or approved for the asset. A
// transfer clears the asset's single-asset approval.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, assetID string) (Address, error)
	GetApproved(ctx context.Context, assetID string) (Address, error)
	IsApprovedForAll(ctx context.Context, owner, operator Address) (bool, error)
	TransferFrom(ctx context.Context, operator, from, to Address, assetID string) error
}

// TokenLedger is the port to a fungible-token contract (ERC-20 semantics).
// TransferFrom spends spender's allowance on from; Transfer moves from's own
// balance.
type TokenLedger interface {
	BalanceOf(ctx context.Context, account Address) (decimal.Decimal, error)
	Allowance(ctx context.Context, owner, spender Address) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to Address, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, spender, from, to Address, amount decimal.Decimal) error
}

// TokenDirectory resolves contract addresses to adapters.
type TokenDirectory interface {
	AssetRegistry(ctx context.Context, registry Address) (AssetRegistry, error)
	TokenLedger(ctx context.Context, token Address) (TokenLedger, error)
}
