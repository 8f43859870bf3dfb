// Package config loads auctiond configuration from defaults, an optional file
// and AUCTIOND_ environment variables.
package config

import (
	"time"

	"github.com/cloudx-io/openescrow/core"
	"github.com/cloudx-io/openescrow/server"
)

// Config is the complete daemon configuration.
type Config struct {
	Auction    AuctionConfig    `mapstructure:"auction"`
	Store      StoreConfig      `mapstructure:"store"`
	Server     ServerConfig     `mapstructure:"server"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
	Standalone StandaloneConfig `mapstructure:"standalone"`

	configPath string
}

// AuctionConfig holds the protocol parameters.
type AuctionConfig struct {
	Administrator         string        `mapstructure:"administrator"`
	EscrowAccount         string        `mapstructure:"escrow_account"`
	DefaultBidPeriod      time.Duration `mapstructure:"default_bid_period"`
	DefaultMinIncreaseBps int64         `mapstructure:"default_min_increase_bps"`
	MinIncreaseFloorBps   int64         `mapstructure:"min_increase_floor_bps"`
}

// StoreConfig selects where auction records are kept.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"` // "memory" or "pebble"
	Path      string `mapstructure:"path"`
	CacheSize int    `mapstructure:"cache_size"`
}

// ServerConfig configures the stream server.
type ServerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Network        string        `mapstructure:"network"` // "tcp" or "vsock"
	Address        string        `mapstructure:"address"`
	VsockPort      uint32        `mapstructure:"vsock_port"`
	MaxWorkers     int           `mapstructure:"max_workers"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	SigningKeyFile string        `mapstructure:"signing_key_file"`
}

// HTTPConfig configures the HTTP API. An empty ListenAddr disables it.
type HTTPConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// StandaloneConfig seeds the in-memory token ledgers and asset registries the
// daemon settles against when no external chain adapter is wired in.
type StandaloneConfig struct {
	Ledgers    []LedgerSeed   `mapstructure:"ledgers"`
	Registries []RegistrySeed `mapstructure:"registries"`
}

// LedgerSeed is one fungible token and its opening balances.
type LedgerSeed struct {
	Address  string        `mapstructure:"address"`
	Balances []BalanceSeed `mapstructure:"balances"`
}

// BalanceSeed mints Amount to Account. A non-empty EscrowAllowance is approved
// for the escrow account.
type BalanceSeed struct {
	Account         string `mapstructure:"account"`
	Amount          string `mapstructure:"amount"`
	EscrowAllowance string `mapstructure:"escrow_allowance"`
}

// RegistrySeed is one asset registry and its minted assets.
type RegistrySeed struct {
	Address string      `mapstructure:"address"`
	Assets  []AssetSeed `mapstructure:"assets"`
}

// AssetSeed mints AssetID to Owner, optionally approving the escrow account.
type AssetSeed struct {
	AssetID       string `mapstructure:"asset_id"`
	Owner         string `mapstructure:"owner"`
	ApproveEscrow bool   `mapstructure:"approve_escrow"`
}

// ConfigPath returns the file the configuration was read from, if any.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// HouseConfig converts the auction section to core parameters.
func (c *Config) HouseConfig() core.Config {
	return core.Config{
		Administrator:         core.Address(c.Auction.Administrator),
		EscrowAccount:         core.Address(c.Auction.EscrowAccount),
		DefaultBidPeriod:      c.Auction.DefaultBidPeriod,
		DefaultMinIncreaseBps: c.Auction.DefaultMinIncreaseBps,
		MinIncreaseFloorBps:   c.Auction.MinIncreaseFloorBps,
	}
}

// ServerOptions converts the server section to stream server options.
func (c *Config) ServerOptions() server.Options {
	return server.Options{
		MaxWorkers:  c.Server.MaxWorkers,
		ReadTimeout: c.Server.ReadTimeout,
	}
}
