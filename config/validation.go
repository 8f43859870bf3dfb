package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidateConfig checks every section of config.
func ValidateConfig(config *Config) error {
	if err := config.HouseConfig().Validate(); err != nil {
		return fmt.Errorf("auction config validation failed: %w", err)
	}
	if err := config.Store.Validate(); err != nil {
		return fmt.Errorf("store config validation failed: %w", err)
	}
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log config validation failed: %w", err)
	}
	if err := config.Standalone.Validate(); err != nil {
		return fmt.Errorf("standalone config validation failed: %w", err)
	}
	if !config.Server.Enabled && config.HTTP.ListenAddr == "" {
		return fmt.Errorf("at least one of the stream server and the HTTP API must be enabled")
	}
	return nil
}

func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "pebble":
		if c.Path == "" {
			return fmt.Errorf("path is required for the pebble backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (supported: memory, pebble)", c.Backend)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	switch c.Network {
	case "tcp":
		if c.Address == "" {
			return fmt.Errorf("address is required for tcp")
		}
	case "vsock":
		if c.VsockPort == 0 {
			return fmt.Errorf("vsock_port is required for vsock")
		}
	default:
		return fmt.Errorf("unknown network %q (supported: tcp, vsock)", c.Network)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must not be negative")
	}
	return nil
}

func (c *LogConfig) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q (supported: text, json)", c.Format)
	}
}

// SlogLevel parses Level.
func (c *LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Level))); err != nil {
		return 0, fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	return level, nil
}

func (c *StandaloneConfig) Validate() error {
	for _, ledger := range c.Ledgers {
		if ledger.Address == "" {
			return fmt.Errorf("ledger address is required")
		}
		for _, balance := range ledger.Balances {
			if balance.Account == "" {
				return fmt.Errorf("ledger %s: balance account is required", ledger.Address)
			}
			if _, err := decimal.NewFromString(balance.Amount); err != nil {
				return fmt.Errorf("ledger %s: invalid amount %q for %s", ledger.Address, balance.Amount, balance.Account)
			}
			if balance.EscrowAllowance != "" {
				if _, err := decimal.NewFromString(balance.EscrowAllowance); err != nil {
					return fmt.Errorf("ledger %s: invalid escrow_allowance %q for %s", ledger.Address, balance.EscrowAllowance, balance.Account)
				}
			}
		}
	}
	for _, registry := range c.Registries {
		if registry.Address == "" {
			return fmt.Errorf("registry address is required")
		}
		for _, asset := range registry.Assets {
			if asset.AssetID == "" || asset.Owner == "" {
				return fmt.Errorf("registry %s: assets need asset_id and owner", registry.Address)
			}
		}
	}
	return nil
}
