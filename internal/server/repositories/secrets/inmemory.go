package secrets

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
)

// InMemoryRepository keeps records in a map guarded by a mutex. It backs
// development setups and tests. Expired entries are dropped lazily on read
// and by DeleteExpired sweeps, so they are unreachable past their deadline
// even if the reaper never runs.
type InMemoryRepository struct {
	mu   sync.Mutex
	data map[string]*models.Secret
	now  func() time.Time
}

// NewInMemoryRepository constructs an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		data: make(map[string]*models.Secret),
		now:  time.Now,
	}
}

// Create inserts the record unless a live one already holds the key. A key
// occupied only by an expired record is considered free.
func (r *InMemoryRepository) Create(ctx context.Context, secret *models.Secret) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.data[secret.LookupKey]; ok && !existing.Expired(r.now()) {
		return common.ErrorDuplicateKey
	}

	stored := *secret
	r.data[secret.LookupKey] = &stored
	return nil
}

// Get returns the record if it is live; an expired record is removed on the
// spot and reported as not found.
func (r *InMemoryRepository) Get(ctx context.Context, lookupKey string) (*models.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	secret, ok := r.data[lookupKey]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if secret.Expired(r.now()) {
		delete(r.data, lookupKey)
		return nil, common.ErrorNotFound
	}

	found := *secret
	return &found, nil
}

// Delete removes the record. Deleting an absent key is a no-op.
func (r *InMemoryRepository) Delete(ctx context.Context, lookupKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, lookupKey)
	return nil
}

// DeleteExpired sweeps out every record whose expiry is at or before now.
func (r *InMemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, secret := range r.data {
		if secret.Expired(now) {
			delete(r.data, key)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records, expired ones included.
func (r *InMemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}
