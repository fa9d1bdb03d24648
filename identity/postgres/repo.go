package identitypostgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencircle/auth-server/identity"
	apperrors "github.com/opencircle/auth-server/internal/errors"
)

var _ identity.Repo = (*Repo)(nil)

// Repo is the PostgreSQL-backed credential store used by the users
// data-access service.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const uniqueViolation = "23505"

func (r *Repo) Create(ctx context.Context, ident *identity.Identity) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_admin, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, ident.Username, ident.Email, ident.PasswordHash, ident.IsAdmin, ident.IsVerified, ident.CreatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, apperrors.Wrapf(apperrors.ErrConflict, "users insert")
		}
		return 0, apperrors.Wrapf(err, "users insert")
	}
	return id, nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	return r.getByField(ctx, "email", email)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	return r.getByField(ctx, "username", username)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*identity.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, COALESCE(password_hash, ''), is_admin, is_verified, created_at, disactivated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanIdentity(row)
}

func (r *Repo) getByField(ctx context.Context, field, value string) (*identity.Identity, error) {
	// field is always one of the two fixed column names above.
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, COALESCE(password_hash, ''), is_admin, is_verified, created_at, disactivated_at
		FROM users
		WHERE `+field+` = $1
	`, value)
	return scanIdentity(row)
}

func scanIdentity(row pgx.Row) (*identity.Identity, error) {
	var ident identity.Identity
	err := row.Scan(&ident.ID, &ident.Username, &ident.Email, &ident.PasswordHash,
		&ident.IsAdmin, &ident.IsVerified, &ident.CreatedAt, &ident.DeactivatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrapf(err, "users select")
	}
	return &ident, nil
}
