package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/cloudx-io/openescrow/core"
)

func setDefaults(v *viper.Viper) {
	// Protocol
	v.SetDefault("auction.administrator", "")
	v.SetDefault("auction.escrow_account", "")
	v.SetDefault("auction.default_bid_period", core.DefaultBidPeriod)
	v.SetDefault("auction.default_min_increase_bps", core.DefaultMinIncreaseBps)
	v.SetDefault("auction.min_increase_floor_bps", core.DefaultMinIncreaseFloorBps)

	// Store
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.path", "/var/lib/auctiond/db")
	v.SetDefault("store.cache_size", 1024)

	// Stream server
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.network", "tcp")
	v.SetDefault("server.address", "127.0.0.1:5000")
	v.SetDefault("server.vsock_port", 5000)
	v.SetDefault("server.max_workers", 16)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.signing_key_file", "") // empty means generate at startup

	// HTTP API
	v.SetDefault("http.listen_addr", "127.0.0.1:8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.shutdown_timeout", 5*time.Second)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
