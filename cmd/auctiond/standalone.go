package main

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/openescrow/adapters/memory"
	"github.com/cloudx-io/openescrow/config"
	"github.com/cloudx-io/openescrow/core"
)

// seedDirectory builds the in-memory ledgers and registries described by cfg.
// Allowances and approvals are granted to escrow.
func seedDirectory(cfg config.StandaloneConfig, escrow core.Address) (*memory.Directory, error) {
	dir := memory.NewDirectory()

	for _, seed := range cfg.Ledgers {
		ledger := memory.NewLedger(core.Address(seed.Address))
		for _, balance := range seed.Balances {
			account := core.Address(balance.Account)
			amount, err := decimal.NewFromString(balance.Amount)
			if err != nil {
				return nil, fmt.Errorf("ledger %s: amount for %s: %w", seed.Address, account, err)
			}
			if err := ledger.Mint(account, amount); err != nil {
				return nil, fmt.Errorf("ledger %s: mint to %s: %w", seed.Address, account, err)
			}
			if balance.EscrowAllowance == "" {
				continue
			}
			allowance, err := decimal.NewFromString(balance.EscrowAllowance)
			if err != nil {
				return nil, fmt.Errorf("ledger %s: allowance for %s: %w", seed.Address, account, err)
			}
			if err := ledger.Approve(account, escrow, allowance); err != nil {
				return nil, fmt.Errorf("ledger %s: approve for %s: %w", seed.Address, account, err)
			}
		}
		dir.AddLedger(ledger)
	}

	for _, seed := range cfg.Registries {
		registry := memory.NewRegistry(core.Address(seed.Address))
		for _, asset := range seed.Assets {
			owner := core.Address(asset.Owner)
			if err := registry.Mint(owner, asset.AssetID); err != nil {
				return nil, fmt.Errorf("registry %s: mint %s: %w", seed.Address, asset.AssetID, err)
			}
			if !asset.ApproveEscrow {
				continue
			}
			if err := registry.Approve(owner, escrow, asset.AssetID); err != nil {
				return nil, fmt.Errorf("registry %s: approve %s: %w", seed.Address, asset.AssetID, err)
			}
		}
		dir.AddRegistry(registry)
	}

	return dir, nil
}
