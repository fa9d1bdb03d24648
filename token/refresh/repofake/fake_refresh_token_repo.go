package refreshrepofake

import (
	"context"
	"sort"
	"sync"

	apperrors "github.com/opencircle/auth-server/internal/errors"
	"github.com/opencircle/auth-server/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	records map[int64]*refresh.Record
	byHash  map[string]int64
	nextID  int64
	lock    sync.RWMutex

	// InsertErr, when set, is returned by Insert. Used to exercise the
	// swallowed-persistence failure mode.
	InsertErr error
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		records: make(map[int64]*refresh.Record),
		byHash:  make(map[string]int64),
		nextID:  1,
	}
}

func (tr *FakeRefreshTokenRepo) Insert(ctx context.Context, record *refresh.Record) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tr.InsertErr != nil {
		return 0, tr.InsertErr
	}

	stored := *record
	stored.ID = tr.nextID
	tr.nextID++
	tr.records[stored.ID] = &stored
	tr.byHash[stored.TokenHash] = stored.ID
	return stored.ID, nil
}

func (tr *FakeRefreshTokenRepo) GetByHash(ctx context.Context, hash string) (*refresh.Record, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	id, ok := tr.byHash[hash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *tr.records[id]
	return &cp, nil
}

func (tr *FakeRefreshTokenRepo) ListByUser(ctx context.Context, userID int64) ([]*refresh.Record, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	var records []*refresh.Record
	for _, record := range tr.records {
		if record.UserID == userID {
			cp := *record
			records = append(records, &cp)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].IssuedAt.After(records[j].IssuedAt) })
	return records, nil
}

func (tr *FakeRefreshTokenRepo) Revoke(ctx context.Context, id int64) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	record, ok := tr.records[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if record.Revoked {
		return false, nil
	}
	record.Revoked = true
	return true, nil
}

// Count returns the number of stored records.
func (tr *FakeRefreshTokenRepo) Count() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.records)
}
