package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS fridgefeast_cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresCache shares one table between every replica of the server.
type PostgresCache struct {
	db *pgxpool.Pool
}

var _ ListCache = (*PostgresCache)(nil)

func NewPostgresCache(ctx context.Context, dsn string) (*PostgresCache, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &PostgresCache{db: db}, nil
}

func (c *PostgresCache) Close() {
	c.db.Close()
}

func (c *PostgresCache) Ready(ctx context.Context) error {
	return c.db.Ping(ctx)
}

func (c *PostgresCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	var value string
	err := c.db.QueryRow(ctx, "SELECT value FROM fridgefeast_cache WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (c *PostgresCache) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM fridgefeast_cache WHERE key = $1)", key).Scan(&exists)
	return exists, err
}

func (c *PostgresCache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	query := `INSERT INTO fridgefeast_cache (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = now()`
	if opts.Condition == PutIfNoneMatch {
		query = `INSERT INTO fridgefeast_cache (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`
	}
	tag, err := c.db.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if opts.Condition == PutIfNoneMatch && tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (c *PostgresCache) List(ctx context.Context, prefix string, _ string) ([]string, error) {
	rows, err := c.db.Query(ctx,
		"SELECT key FROM fridgefeast_cache WHERE starts_with(key, $1) ORDER BY key COLLATE \"C\"", prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()
	return scanKeys(rows, prefix)
}
