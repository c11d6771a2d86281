package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
)

// secretRow is the bun mapping for the secrets table used by the embedded
// SQLite backend. Times are normalized to UTC so string-encoded timestamps
// compare correctly.
type secretRow struct {
	bun.BaseModel `bun:"table:secrets"`

	LookupKey  string     `bun:"lookup_key,pk"`
	Ciphertext []byte     `bun:"ciphertext,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	ExpiresAt  *time.Time `bun:"expires_at"`
}

// SqliteRepository implements secret storage on an embedded SQLite database
// through the bun query builder. It exists for single-binary deployments
// that need durability without a PostgreSQL server.
type SqliteRepository struct {
	db *bun.DB
}

// NewSqliteRepository constructs a repository over the given bun handle.
func NewSqliteRepository(db *bun.DB) *SqliteRepository {
	return &SqliteRepository{db: db}
}

// CreateSchema creates the secrets table if it does not exist yet. The SQLite
// backend owns its schema directly instead of running goose migrations.
func (r *SqliteRepository) CreateSchema(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*secretRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create schema error: %w", err)
	}
	return nil
}

// Create inserts a record with ON CONFLICT DO NOTHING so the uniqueness probe
// and the insert are a single statement; zero rows affected means the key is
// already taken.
func (r *SqliteRepository) Create(ctx context.Context, secret *models.Secret) error {
	row := &secretRow{
		LookupKey:  secret.LookupKey,
		Ciphertext: secret.Ciphertext,
		CreatedAt:  secret.CreatedAt.UTC(),
	}
	if secret.ExpiresAt != nil {
		t := secret.ExpiresAt.UTC()
		row.ExpiresAt = &t
	}

	res, err := r.db.NewInsert().Model(row).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorDuplicateKey
	}
	return nil
}

// Get returns the record if it exists and has not expired; expired rows are
// filtered in the query itself.
func (r *SqliteRepository) Get(ctx context.Context, lookupKey string) (*models.Secret, error) {
	row := new(secretRow)
	err := r.db.NewSelect().Model(row).
		Where("lookup_key = ?", lookupKey).
		Where("expires_at IS NULL OR expires_at > ?", time.Now().UTC()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}

	return &models.Secret{
		LookupKey:  row.LookupKey,
		Ciphertext: row.Ciphertext,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
	}, nil
}

// Delete removes the record. Deleting an absent key is a no-op.
func (r *SqliteRepository) Delete(ctx context.Context, lookupKey string) error {
	_, err := r.db.NewDelete().Model((*secretRow)(nil)).
		Where("lookup_key = ?", lookupKey).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired removes every record whose expiry is at or before now.
func (r *SqliteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*secretRow)(nil)).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
