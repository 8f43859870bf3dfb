// Package memory provides in-memory fungible-token ledgers and unique-asset
// registries behind the core token ports. They back tests and the daemon's
// standalone mode; they are not production ledgers.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudx-io/openescrow/core"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidRecipient      = errors.New("invalid recipient")
	ErrNotOwner              = errors.New("sender does not own asset")
	ErrNotApproved           = errors.New("operator not approved for asset")
	ErrUnknownAsset          = errors.New("unknown asset")
	ErrAssetExists           = errors.New("asset already minted")
	ErrUnknownContract       = errors.New("unknown contract")
)

// Directory maps contract addresses to in-memory ledgers and registries.
type Directory struct {
	mu         sync.RWMutex
	ledgers    map[core.Address]*Ledger
	registries map[core.Address]*Registry
}

func NewDirectory() *Directory {
	return &Directory{
		ledgers:    make(map[core.Address]*Ledger),
		registries: make(map[core.Address]*Registry),
	}
}

// AddLedger registers l under its address, replacing any previous ledger there.
func (d *Directory) AddLedger(l *Ledger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledgers[l.Address()] = l
}

// AddRegistry registers r under its address, replacing any previous registry there.
func (d *Directory) AddRegistry(r *Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registries[r.Address()] = r
}

// Ledger returns the concrete ledger at address.
func (d *Directory) Ledger(address core.Address) (*Ledger, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.ledgers[address]
	return l, ok
}

// Registry returns the concrete registry at address.
func (d *Directory) Registry(address core.Address) (*Registry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.registries[address]
	return r, ok
}

func (d *Directory) AssetRegistry(_ context.Context, registry core.Address) (core.AssetRegistry, error) {
	r, ok := d.Registry(registry)
	if !ok {
		return nil, fmt.Errorf("%w: asset registry %s", ErrUnknownContract, registry)
	}
	return r, nil
}

func (d *Directory) TokenLedger(_ context.Context, token core.Address) (core.TokenLedger, error) {
	l, ok := d.Ledger(token)
	if !ok {
		return nil, fmt.Errorf("%w: token ledger %s", ErrUnknownContract, token)
	}
	return l, nil
}
