package database

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	apperrors "github.com/opencircle/auth-server/internal/errors"
)

// Migrate applies the embedded migration set named by dir ("users" or
// "tokens") to the database at dsn. Already-current schemas are not an
// error.
func Migrate(dsn, dir string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	sourceDriver, err := iofs.New(migrationFS, "migrations/"+dir)
	if err != nil {
		return apperrors.Wrapf(err, "migrate source")
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return apperrors.Wrapf(err, "migrate init")
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrapf(err, "migrate up")
	}
	return nil
}
