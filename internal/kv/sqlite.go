package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// scanPageSize bounds how many rows a single Scan query reads before the
// callback runs, so no cursor is held open while fn executes.
const scanPageSize = 256

// NewSQLite opens a SQLite database connection at the given path.
// It enables WAL mode and a busy timeout and sets connection pool settings.
func NewSQLite(path string) (*sql.DB, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// MigrateSQLite creates the kv table. A NULL value marks a deleted key whose
// version is kept so a recreated key continues from it.
// It is idempotent and can be run multiple times safely.
func MigrateSQLite(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key BLOB PRIMARY KEY,
			value BLOB,
			version INTEGER NOT NULL
		) WITHOUT ROWID;`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// SQLiteStore implements Store on a single SQLite table.
// Keys are BLOBs, which SQLite orders bytewise.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens and migrates a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the item stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key []byte) (*Item, error) {
	item := &Item{Key: append([]byte(nil), key...)}
	err := s.db.QueryRowContext(ctx,
		"SELECT value, version FROM kv WHERE key = ? AND value IS NOT NULL", key,
	).Scan(&item.Value, &item.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Set stores value under key, bumping its version.
func (s *SQLiteStore) Set(ctx context.Context, key, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1`,
		key, value)
	return err
}

// CompareAndSwap performs a conditional insert or update in one statement.
func (s *SQLiteStore) CompareAndSwap(ctx context.Context, key, value []byte, version uint64) error {
	var (
		res sql.Result
		err error
	)
	if version == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO kv (key, value, version) VALUES (?, ?, 1)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, version = kv.version + 1
			WHERE kv.value IS NULL`,
			key, value)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE kv SET value = ?, version = version + 1 WHERE key = ? AND version = ? AND value IS NOT NULL",
			value, key, version)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionMismatch
	}
	return nil
}

// Delete marks key deleted, bumping its version.
func (s *SQLiteStore) Delete(ctx context.Context, key []byte) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE kv SET value = NULL, version = version + 1 WHERE key = ? AND value IS NOT NULL", key)
	return err
}

// Scan reads [start, end) in keyset-paginated pages.
func (s *SQLiteStore) Scan(ctx context.Context, start, end []byte, fn func(*Item) error) error {
	from := start
	inclusive := true
	for {
		page, err := s.scanPage(ctx, from, inclusive, end)
		if err != nil {
			return err
		}
		for _, item := range page {
			if err := fn(item); err != nil {
				if errors.Is(err, ErrStopScan) {
					return nil
				}
				return err
			}
		}
		if len(page) < scanPageSize {
			return nil
		}
		from = page[len(page)-1].Key
		inclusive = false
	}
}

func (s *SQLiteStore) scanPage(ctx context.Context, from []byte, inclusive bool, end []byte) ([]*Item, error) {
	var (
		where = []string{"value IS NOT NULL"}
		args  []any
	)
	if from == nil {
		from = []byte{}
	}
	if inclusive {
		where = append(where, "key >= ?")
	} else {
		where = append(where, "key > ?")
	}
	args = append(args, from)
	if end != nil {
		where = append(where, "key < ?")
		args = append(args, end)
	}
	args = append(args, scanPageSize)

	query := "SELECT key, value, version FROM kv WHERE " + strings.Join(where, " AND ") +
		" ORDER BY key LIMIT ?"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var page []*Item
	for rows.Next() {
		item := &Item{}
		if err := rows.Scan(&item.Key, &item.Value, &item.Version); err != nil {
			return nil, err
		}
		page = append(page, item)
	}
	return page, rows.Err()
}

// DeletePrefix marks every key starting with prefix deleted.
func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix []byte) error {
	if prefix == nil {
		prefix = []byte{}
	}
	end := PrefixEnd(prefix)
	if end == nil {
		_, err := s.db.ExecContext(ctx,
			"UPDATE kv SET value = NULL, version = version + 1 WHERE key >= ? AND value IS NOT NULL", prefix)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE kv SET value = NULL, version = version + 1 WHERE key >= ? AND key < ? AND value IS NOT NULL", prefix, end)
	return err
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
