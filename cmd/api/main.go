package main

import (
	"context"
	_ "embed"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jigintern/2025-summer-c/internal/config"
	"github.com/jigintern/2025-summer-c/internal/geoindex"
	"github.com/jigintern/2025-summer-c/internal/http"
	"github.com/jigintern/2025-summer-c/internal/idgen"
	"github.com/jigintern/2025-summer-c/internal/kv"
	"github.com/jigintern/2025-summer-c/internal/service"
	"github.com/jigintern/2025-summer-c/internal/storage"
)

//go:embed index.html
var indexHTML string

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := kv.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	index := storage.NewDecadeIndex(store)
	ids := idgen.NewULIDGenerator()
	records := storage.NewRecordRepo(store, index, ids, cfg.CASMaxRetries)

	deps := &http.Deps{
		Store:     store,
		Records:   records,
		IndexHTML: indexHTML,
	}

	var search service.SearchIndex
	if cfg.SearchBackend == config.SearchQdrant {
		qdrantIndex, err := geoindex.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantCollection)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qdrantIndex.Close()
		}()
		if err := qdrantIndex.EnsureCollection(ctx); err != nil {
			log.Fatalf("Failed to ensure Qdrant collection: %v", err)
		}
		slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection)
		search = qdrantIndex
		deps.Search = qdrantIndex
	}

	gate := service.NewStoreGate(storage.NewMaintenanceLock(store, cfg.MaintenanceLockTTL), cfg.MaintenanceDrain)
	limits := service.Limits{
		MaxDecadeSpan: cfg.MaxDecadeSpan,
		MaxPhotos:     cfg.MaxPhotos,
	}
	deps.Submissions = service.NewSubmissionService(records, search, gate, limits)
	deps.Queries = service.NewQueryService(records, index, search)
	deps.Threads = service.NewThreadService(records, ids, gate)

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           http.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr, "store", cfg.StoreBackend, "search", cfg.SearchBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}
