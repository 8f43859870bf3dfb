package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cloudx-io/openescrow/config"
	"github.com/cloudx-io/openescrow/core"
	"github.com/cloudx-io/openescrow/httpapi"
	"github.com/cloudx-io/openescrow/server"
	"github.com/cloudx-io/openescrow/storage/pebblestore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auction house",
	Long: `Run the auction house with the stream server and the HTTP API enabled by
the configuration. Token ledgers and asset registries are the in-memory ones
seeded from the [standalone] section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// serve runs the configured servers until ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	directory, err := seedDirectory(cfg.Standalone, core.Address(cfg.Auction.EscrowAccount))
	if err != nil {
		return fmt.Errorf("seed standalone ledgers: %w", err)
	}

	house, err := core.NewAuctionHouse(cfg.HouseConfig(), store, directory, logger)
	if err != nil {
		return err
	}

	keys, err := loadKeys(cfg.Server.SigningKeyFile, logger)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		listener, err := server.Listen(cfg.Server.Network, cfg.Server.Address, cfg.Server.VsockPort)
		if err != nil {
			return err
		}
		srv := server.New(house, keys, cfg.ServerOptions(), logger.With("component", "stream"))
		g.Go(func() error {
			return srv.Serve(gCtx, listener)
		})
	}

	if cfg.HTTP.ListenAddr != "" {
		handler := httpapi.NewHandler(house, keys, logger.With("component", "http"))
		httpSrv := &http.Server{
			Addr:         cfg.HTTP.ListenAddr,
			Handler:      handler.Router(),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		g.Go(func() error {
			logger.Info("HTTP API listening", "address", cfg.HTTP.ListenAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("auctiond stopped", "error", err)
	return err
}

func openStore(cfg config.StoreConfig, logger *slog.Logger) (core.Store, func(), error) {
	if cfg.Backend != "pebble" {
		logger.Warn("Using in-memory auction store; auctions are lost on restart")
		return core.NewMemoryStore(), func() {}, nil
	}

	store, err := pebblestore.Open(cfg.Path, pebblestore.Options{CacheSize: cfg.CacheSize})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Opened auction store", "path", cfg.Path)

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close auction store", "error", err)
		}
	}, nil
}

func loadKeys(path string, logger *slog.Logger) (*server.KeyManager, error) {
	if path == "" {
		keys, err := server.NewKeyManager()
		if err != nil {
			return nil, err
		}
		logger.Warn("Generated ephemeral receipt signing key", "key_id", keys.KeyID())
		return keys, nil
	}

	keys, err := server.LoadKeyManager(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded receipt signing key", "path", path, "key_id", keys.KeyID())
	return keys, nil
}
