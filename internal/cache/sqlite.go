package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteCache keeps every key in one table of a local database file.
type SQLiteCache struct {
	db *sql.DB
}

var _ ListCache = (*SQLiteCache)(nil)

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) Ready(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var value string
	err := c.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (c *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx, "SELECT 1 FROM cache WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (c *SQLiteCache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	query := "INSERT INTO cache (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if opts.Condition == PutIfNoneMatch {
		query = "INSERT INTO cache (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING"
	}
	res, err := c.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if opts.Condition == PutIfNoneMatch {
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrAlreadyExists
		}
	}
	return nil
}

func (c *SQLiteCache) List(ctx context.Context, prefix string, _ string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT key FROM cache WHERE substr(key, 1, ?) = ? ORDER BY key",
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()
	return scanKeys(rows, prefix)
}

type keyRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanKeys(rows keyRows, prefix string) ([]string, error) {
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, strings.TrimPrefix(key, prefix))
	}
	return keys, rows.Err()
}
