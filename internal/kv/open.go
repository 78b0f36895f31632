package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jigintern/2025-summer-c/internal/config"
)

// Open returns the store selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		badgerCfg := InMemoryBadgerConfig()
		badgerCfg.Logger = logger.With("component", "badger")
		store, err = asStore(OpenBadger(badgerCfg))
	case config.BackendBadger:
		badgerCfg := DefaultBadgerConfig(cfg.BadgerPath)
		badgerCfg.Logger = logger.With("component", "badger")
		store, err = asStore(OpenBadger(badgerCfg))
	case config.BackendSQLite:
		store, err = asStore(OpenSQLite(cfg.DBPath))
	case config.BackendRedis:
		store, err = asStore(OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("Opened store", "backend", cfg.StoreBackend)
	return store, nil
}

// asStore keeps a failed constructor from producing a non-nil interface
// holding a nil pointer.
func asStore[S Store](s S, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
