package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ConnectRetryMax bounds the connection attempts made by Connect.
const ConnectRetryMax = 5

// NewPool creates a small pgxpool for the archive and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 2
	cfg.ConnConfig.RuntimeParams["application_name"] = "qcwatch"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Connect calls NewPool with exponential backoff. A malformed DSN is not
// retried.
func Connect(ctx context.Context, dsn string, log zerolog.Logger) (*pgxpool.Pool, error) {
	if _, err := pgxpool.ParseConfig(dsn); err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	var pool *pgxpool.Pool
	operation := func() error {
		p, err := NewPool(ctx, dsn)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = time.Minute
	policy := backoff.WithContext(backoff.WithMaxRetries(b, ConnectRetryMax), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, t time.Duration) {
		log.Warn().Err(err).Dur("retry_in", t).Msg("archive database not reachable")
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}
