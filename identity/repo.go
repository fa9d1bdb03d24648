package identity

import "context"

// Repo is the credential store contract consumed by the session
// protocol. Lookups return ErrNotFound when no account matches.
type Repo interface {
	Create(ctx context.Context, ident *Identity) (int64, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByUsername(ctx context.Context, username string) (*Identity, error)
	GetByID(ctx context.Context, id int64) (*Identity, error)
}
