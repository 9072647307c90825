// Package db opens and verifies the connections behind the bookmark storage
// backends: Redis, PostgreSQL and a local SQLite file.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplicationName identifies this service's connections on the server side.
const ApplicationName = "jobmate-listing-service"

const pingTimeout = 5 * time.Second

// maxPostgresConns caps the pool; the bookmark store issues at most two
// concurrent statements (primary and backup writes).
const maxPostgresConns = 4

// NewPostgresPool builds a small pgxpool for the kv_store table and verifies
// it within pingTimeout.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if cfg.MaxConns > maxPostgresConns {
		cfg.MaxConns = maxPostgresConns
	}
	if cfg.ConnConfig.RuntimeParams == nil {
		cfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}
