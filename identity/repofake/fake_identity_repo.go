package identityrepofake

import (
	"context"
	"sync"

	"github.com/opencircle/auth-server/identity"
	apperrors "github.com/opencircle/auth-server/internal/errors"
)

var _ identity.Repo = (*FakeIdentityRepo)(nil)

type FakeIdentityRepo struct {
	identities map[int64]*identity.Identity
	nextID     int64
	lock       sync.RWMutex
}

func NewFakeIdentityRepo() *FakeIdentityRepo {
	return &FakeIdentityRepo{
		identities: make(map[int64]*identity.Identity),
		nextID:     1,
	}
}

func (ir *FakeIdentityRepo) Create(ctx context.Context, ident *identity.Identity) (int64, error) {
	ir.lock.Lock()
	defer ir.lock.Unlock()

	for _, existing := range ir.identities {
		if existing.Email == ident.Email || existing.Username == ident.Username {
			return 0, apperrors.ErrConflict
		}
	}

	stored := *ident
	stored.ID = ir.nextID
	ir.nextID++
	ir.identities[stored.ID] = &stored
	return stored.ID, nil
}

func (ir *FakeIdentityRepo) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	for _, ident := range ir.identities {
		if ident.Email == email {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (ir *FakeIdentityRepo) GetByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	for _, ident := range ir.identities {
		if ident.Username == username {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (ir *FakeIdentityRepo) GetByID(ctx context.Context, id int64) (*identity.Identity, error) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()

	ident, ok := ir.identities[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *ident
	return &cp, nil
}

// Update overwrites a stored identity. Tests use it to simulate profile
// changes (e.g., admin promotion) between token issuance and refresh.
func (ir *FakeIdentityRepo) Update(ident *identity.Identity) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	cp := *ident
	ir.identities[ident.ID] = &cp
}

// Delete removes a stored identity outright.
func (ir *FakeIdentityRepo) Delete(id int64) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	delete(ir.identities, id)
}
