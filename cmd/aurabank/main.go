package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/config"
	"github.com/aura-bank/aurabank/internal/logging"
	"github.com/aura-bank/aurabank/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sessions session.Store
	switch cfg.SessionStore {
	case config.StoreRedis:
		store, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
		sessions = store
	default:
		sessions = session.NewFileStore(cfg.SessionFile)
	}

	client := api.NewClient(cfg.LedgerURL, cfg.HTTPTimeout)

	a := newApp(cfg, logger, client, sessions, os.Stdin, os.Stdout)
	if err := a.run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("client error", "error", err)
		os.Exit(1)
	}
}
