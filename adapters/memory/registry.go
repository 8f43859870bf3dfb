package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudx-io/openescrow/core"
)

// Registry is an in-memory unique-asset contract with ERC-721 ownership,
// per-asset approval and operator semantics.
type Registry struct {
	mu        sync.Mutex
	address   core.Address
	owners    map[string]core.Address
	approved  map[string]core.Address
	operators map[core.Address]map[core.Address]bool
}

// NewRegistry creates an empty registry deployed at address.
func NewRegistry(address core.Address) *Registry {
	return &Registry{
		address:   address,
		owners:    make(map[string]core.Address),
		approved:  make(map[string]core.Address),
		operators: make(map[core.Address]map[core.Address]bool),
	}
}

// Address returns the contract address of the registry.
func (r *Registry) Address() core.Address {
	return r.address
}

// Mint creates assetID owned by owner.
func (r *Registry) Mint(owner core.Address, assetID string) error {
	if owner.IsZero() {
		return ErrInvalidRecipient
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[assetID]; exists {
		return fmt.Errorf("%w: %s", ErrAssetExists, assetID)
	}
	r.owners[assetID] = owner
	return nil
}

// Approve lets approved transfer assetID. caller must own the asset or be
// one of the owner's operators.
func (r *Registry) Approve(caller, approved core.Address, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	if caller != owner && !r.operators[owner][caller] {
		return fmt.Errorf("%w: %s may not approve %s", ErrNotApproved, caller, assetID)
	}
	r.approved[assetID] = approved
	return nil
}

// GetApproved returns the single-asset approval for assetID.
func (r *Registry) GetApproved(_ context.Context, assetID string) (core.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[assetID]; !ok {
		return core.ZeroAddress, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return r.approved[assetID], nil
}

func (r *Registry) IsApprovedForAll(_ context.Context, owner, operator core.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.operators[owner][operator], nil
}

// SetApprovalForAll grants or revokes operator rights over all of owner's assets.
func (r *Registry) SetApprovalForAll(owner, operator core.Address, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.operators[owner] == nil {
		r.operators[owner] = make(map[core.Address]bool)
	}
	r.operators[owner][operator] = approved
}

func (r *Registry) OwnerOf(_ context.Context, assetID string) (core.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return core.ZeroAddress, fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	return owner, nil
}

func (r *Registry) TransferFrom(_ context.Context, operator, from, to core.Address, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
	}
	if owner != from {
		return fmt.Errorf("%w: %s is owned by %s, not %s", ErrNotOwner, assetID, owner, from)
	}
	if operator != owner && r.approved[assetID] != operator && !r.operators[owner][operator] {
		return fmt.Errorf("%w: %s may not transfer %s", ErrNotApproved, operator, assetID)
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}

	delete(r.approved, assetID)
	r.owners[assetID] = to
	return nil
}
