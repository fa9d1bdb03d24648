package refresh

import "context"

// Repo manages server-side storage of refresh token records, keyed by
// token hash. GetByHash is the sole revocation check in the protocol:
// a structurally valid token is still rejected once its record is
// revoked.
type Repo interface {
	Insert(ctx context.Context, record *Record) (int64, error)

	// GetByHash returns the record for a token hash, or ErrNotFound.
	GetByHash(ctx context.Context, hash string) (*Record, error)

	// ListByUser returns all records for a user, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*Record, error)

	// Revoke flips the revoked flag only if it is still false, and
	// reports whether this call performed the flip. A false return on a
	// live record means someone else revoked it first.
	Revoke(ctx context.Context, id int64) (bool, error)
}
