// Package secrets provides storage backends for one-time secret records:
// PostgreSQL for production, embedded SQLite for single-binary deployments,
// and an in-memory map for development and tests.
package secrets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
)

// Repository is the secret store: an opaque lookup key mapped to a sealed
// record with optional expiry.
//
// Semantics every backend must honor:
//
//   - Create inserts exactly once. A live record under the same lookup key
//     makes it fail with common.ErrorDuplicateKey. The existence check and
//     the insert are a single conditional operation, so two concurrent
//     creations with a colliding key can never overwrite each other.
//   - Get returns live records only: absent, expired and deleted keys all
//     yield common.ErrorNotFound. Expiry is enforced at read time, so records
//     become unreachable the instant their deadline passes regardless of
//     reaper cadence.
//   - Delete is idempotent; deleting an absent key is a no-op.
//   - DeleteExpired reclaims storage held by expired records and reports how
//     many were removed. Visibility never depends on it.
//
// Backend infrastructure failures are wrapped in common.ErrorStoreUnavailable
// so callers can tell a transient outage from a missing record. The service
// never retries them.
type Repository interface {
	Create(ctx context.Context, secret *models.Secret) error
	Get(ctx context.Context, lookupKey string) (*models.Secret, error)
	Delete(ctx context.Context, lookupKey string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
