// Package database provides the PostgreSQL connection pool and schema
// migrations shared by the data-access services.
package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/opencircle/auth-server/internal/errors"
)

// Connect opens a pgx pool against the given DSN and verifies the
// connection. Caller must Close the pool when done.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.Wrapf(err, "pgxpool new")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.Wrapf(err, "pgxpool ping")
	}
	return pool, nil
}
