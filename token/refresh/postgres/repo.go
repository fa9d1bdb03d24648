package refreshpostgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/token/refresh"
)

var _ refresh.Repo = (*Repo)(nil)

// Repo is the PostgreSQL-backed token store used by the tokens
// data-access service.
type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Insert(ctx context.Context, record *refresh.Record) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tokens (user_id, refresh_token_hash, issued_at, expires_at, ip_address, user_agent, is_revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, record.UserID, record.TokenHash, record.IssuedAt, record.ExpiresAt,
		record.IPAddress, record.UserAgent, record.Revoked).Scan(&id)
	if err != nil {
		return 0, apperrors.Wrapf(err, "tokens insert")
	}
	return id, nil
}

func (r *Repo) GetByHash(ctx context.Context, hash string) (*refresh.Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, refresh_token_hash, issued_at, expires_at,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_revoked
		FROM tokens
		WHERE refresh_token_hash = $1
	`, hash)

	var record refresh.Record
	err := row.Scan(&record.ID, &record.UserID, &record.TokenHash, &record.IssuedAt,
		&record.ExpiresAt, &record.IPAddress, &record.UserAgent, &record.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrapf(err, "tokens select")
	}
	return &record, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]*refresh.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, refresh_token_hash, issued_at, expires_at,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_revoked
		FROM tokens
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "tokens select by user")
	}
	defer rows.Close()

	var records []*refresh.Record
	for rows.Next() {
		var record refresh.Record
		if err := rows.Scan(&record.ID, &record.UserID, &record.TokenHash, &record.IssuedAt,
			&record.ExpiresAt, &record.IPAddress, &record.UserAgent, &record.Revoked); err != nil {
			return nil, apperrors.Wrapf(err, "tokens scan")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrapf(err, "tokens rows")
	}
	return records, nil
}

// Revoke flips is_revoked only when it is still false, so concurrent
// rotations of the same token are detectable by the caller.
func (r *Repo) Revoke(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tokens
		SET is_revoked = TRUE
		WHERE id = $1 AND is_revoked = FALSE
	`, id)
	if err != nil {
		return false, apperrors.Wrapf(err, "tokens revoke")
	}
	return tag.RowsAffected() > 0, nil
}
