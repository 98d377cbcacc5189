// Package database manages the PostgreSQL connection pool and schema
// migrations for the engine store.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing defaults. The engine is a low-concurrency curation service;
// a research request touches the pool a handful of times.
const (
	defaultMaxConns        = 10
	defaultConnLifetime    = time.Hour
	defaultConnIdleTimeout = 15 * time.Minute
)

// DB wraps a pgxpool connection pool. Repositories embed the pool directly
// so they can use pgx query methods without an extra indirection.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.MaxConnections <= 0 {
		out.MaxConnections = defaultMaxConns
	}
	if out.MaxConnLifetime <= 0 {
		out.MaxConnLifetime = defaultConnLifetime
	}
	if out.MaxConnIdleTime <= 0 {
		out.MaxConnIdleTime = defaultConnIdleTimeout
	}
	return &out
}

// NewConnection opens a connection pool against cfg.URL and verifies it with
// a ping before returning. Callers wrap this in retry when the database may
// still be starting.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	cfg = cfg.withDefaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConnections
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
