package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jigintern/2025-summer-c/internal/config"
	"github.com/jigintern/2025-summer-c/internal/geoindex"
	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

// app is what every subcommand operates on.
type app struct {
	records     *storage.RecordRepo
	maintenance *service.Maintenance
	close       func() error
}

// opener builds the app for a command invocation.
type opener func(ctx context.Context) (*app, error)

// openApp opens the store and optional search mirror named by the
// environment, the same way the API server does.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	store, err := kv.Open(ctx, cfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	closers := []func() error{store.Close}

	var mirror service.SearchIndex
	if cfg.SearchBackend == config.SearchQdrant {
		qdrantIndex, err := geoindex.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create qdrant client: %w", err)
		}
		closers = append(closers, qdrantIndex.Close)
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			_ = qdrantIndex.Close()
			_ = store.Close()
			return nil, fmt.Errorf("ensure qdrant collection: %w", err)
		}
		mirror = qdrantIndex
	}

	gate := service.NewStoreGate(storage.NewMaintenanceLock(store, cfg.MaintenanceLockTTL), cfg.MaintenanceDrain)
	a := newApp(store, mirror, gate, cfg.CASMaxRetries, service.Limits{
		MaxDecadeSpan: cfg.MaxDecadeSpan,
		MaxPhotos:     cfg.MaxPhotos,
	})
	a.close = func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	return a, nil
}

// newApp wires the record layer over store. The gate is shared with every
// other process using the same store when it carries a store lock.
func newApp(store kv.Store, mirror service.SearchIndex, gate *service.Gate, maxRetries int, limits service.Limits) *app {
	index := storage.NewDecadeIndex(store)
	records := storage.NewRecordRepo(store, index, idgen.NewULIDGenerator(), maxRetries)
	return &app{
		records:     records,
		maintenance: service.NewMaintenance(records, index, mirror, gate, limits),
		close:       func() error { return nil },
	}
}
