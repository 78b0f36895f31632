package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Search backends accepted by SEARCH_BACKEND.
const (
	SearchIndex  = "index"
	SearchQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	StoreBackend  string
	BadgerPath    string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	SearchBackend    string
	QdrantURL        string
	QdrantCollection string

	MaxDecadeSpan int
	CASMaxRetries int
	MaxPhotos     int

	// MaintenanceDrain is how long reset and reindex wait after taking the
	// store lock, and the longest a single write may run.
	MaintenanceDrain time.Duration
	// MaintenanceLockTTL is how long a maintenance lock outlives a crashed
	// owner. It must exceed the longest reset or reindex.
	MaintenanceLockTTL time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:          getEnv("API_PORT", "8000"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendBadger)),
		BadgerPath:       getEnv("BADGER_PATH", "./data/badger"),
		DBPath:           getEnv("DB_PATH", "./data/mapnotes.db"),
		RedisAddr:        getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisPrefix:      getEnv("REDIS_PREFIX", "mapnotes:"),
		SearchBackend:    strings.ToLower(getEnv("SEARCH_BACKEND", SearchIndex)),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "mapnotes"),
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendBadger, BackendSQLite, BackendRedis:
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of memory, badger, sqlite, redis, got %q", cfg.StoreBackend)
	}

	switch cfg.SearchBackend {
	case SearchIndex, SearchQdrant:
	default:
		return nil, fmt.Errorf("SEARCH_BACKEND must be index or qdrant, got %q", cfg.SearchBackend)
	}

	if cfg.RedisDB, err = getInt("REDIS_DB", 0, 0); err != nil {
		return nil, err
	}
	if cfg.MaxDecadeSpan, err = getInt("MAX_DECADE_SPAN", 1000, 1); err != nil {
		return nil, err
	}
	if cfg.CASMaxRetries, err = getInt("CAS_MAX_RETRIES", 5, 1); err != nil {
		return nil, err
	}
	if cfg.MaxPhotos, err = getInt("MAX_PHOTOS", 20, 0); err != nil {
		return nil, err
	}
	if cfg.MaintenanceDrain, err = getDuration("MAINTENANCE_DRAIN", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaintenanceLockTTL, err = getDuration("MAINTENANCE_LOCK_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaintenanceLockTTL <= cfg.MaintenanceDrain {
		return nil, fmt.Errorf("MAINTENANCE_LOCK_TTL (%s) must exceed MAINTENANCE_DRAIN (%s)", cfg.MaintenanceLockTTL, cfg.MaintenanceDrain)
	}

	// Create the data directory for file-backed stores
	var dataDir string
	switch cfg.StoreBackend {
	case BackendBadger:
		dataDir = cfg.BadgerPath
	case BackendSQLite:
		dataDir = filepath.Dir(cfg.DBPath)
	}
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt parses an integer environment variable, enforcing a lower bound.
func getInt(key string, defaultValue, min int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n < min {
		return 0, fmt.Errorf("%s must be at least %d", key, min)
	}
	return n, nil
}

// getDuration parses a non-negative duration environment variable.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}
