// Package db provides the Postgres History Oracle: connection pooling via pgx, migrations and the
// message repository.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

const (
	defaultMaxConns          = 20
	defaultMinConns          = 2
	defaultHealthCheckPeriod = 30 * time.Second
	applicationName          = "uftp-compliance"
)

// NewPool creates a pgx connection pool from the given database URL and pings it.
// Pool sizing set in the URL (pool_max_conns, pool_min_conns) wins over the defaults.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%s - database URL is empty", logPrefix)
	}
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	applyPoolDefaults(config)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established (max %d conns)", logPrefix, config.MaxConns))
	return pool, nil
}

// applyPoolDefaults fills settings the URL left at pgx defaults.
func applyPoolDefaults(config *pgxpool.Config) {
	connString := config.ConnString()
	if !hasParam(connString, "pool_max_conns") {
		config.MaxConns = defaultMaxConns
	}
	if !hasParam(connString, "pool_min_conns") {
		config.MinConns = defaultMinConns
	}
	if !hasParam(connString, "pool_health_check_period") {
		config.HealthCheckPeriod = defaultHealthCheckPeriod
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
}

func hasParam(connString, name string) bool {
	return strings.Contains(connString, name+"=")
}
