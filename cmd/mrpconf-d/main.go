package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/rmax-ai/mrpconf/pkg/api"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/logging"
	"github.com/rmax-ai/mrpconf/pkg/store"
	"github.com/rmax-ai/mrpconf/pkg/store/redis"
)

var Version = "v0.1.0"

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "mrpconf-d: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = logger.With("component", "mrpconf-d")
	logger.Info("system_started", "version", Version, "backend", cfg.Backend)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed_to_init_store", "error", err)
		return err
	}

	ctx := context.Background()
	if cfg.Seed {
		applied, err := store.ApplySeed(ctx, st, defaultSeed())
		if err != nil {
			st.Close()
			logger.Error("failed_to_seed_store", "error", err)
			return err
		}
		logger.Info("store_seeded", "applied", applied)
	}

	srv := api.NewServer(st, cfg.Addr,
		api.WithLogger(logger),
		api.WithOperationalTemplate(loader.OperationalFallback()),
	)
	if cfg.TLSCert != "" {
		srv.SetTLS(cfg.TLSCert, cfg.TLSKey)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigs:
		logger.Info("shutdown_initiated", "signal", sig.String())
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server_failed", "error", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("failed_to_stop_server", "error", err)
	}

	if err := st.Close(); err != nil {
		logger.Error("failed_to_close_store", "error", err)
	} else {
		logger.Info("store_closed")
	}

	logger.Info("shutdown_complete")
	return serveErr
}

func openStore(cfg Config, logger *log.Logger) (store.ConfigStore, error) {
	switch cfg.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("store_initialized", "backend", "redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return redis.NewConfigStore(client, logger), nil
	default:
		st, err := store.NewStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("store_initialized", "backend", "sqlite", "path", cfg.DBPath)
		return st, nil
	}
}

// defaultSeed is the content of a fresh store: the sets clients fall back to.
func defaultSeed() store.Seed {
	return store.Seed{
		Scenarios:   loader.ScenarioFallback(),
		Technical:   loader.TechnicalFallback(),
		Operational: loader.OperationalFallback(),
	}
}
