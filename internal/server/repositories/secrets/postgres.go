package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/dbx"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
)

// PostgresRepository implements secret storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a record with a not-if-exists guarantee. ON CONFLICT DO
// NOTHING makes the uniqueness probe and the insert one statement; zero rows
// affected means the key is already taken.
func (r *PostgresRepository) Create(ctx context.Context, secret *models.Secret) error {
	query := `
		INSERT INTO secrets (lookup_key, ciphertext, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lookup_key) DO NOTHING;
	`
	res, err := r.db.ExecContext(ctx, query,
		secret.LookupKey, secret.Ciphertext, secret.CreatedAt, secret.ExpiresAt)
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

// Get returns the record if it exists and has not expired. Expired rows are
// filtered in SQL, so there is no visibility grace window.
func (r *PostgresRepository) Get(ctx context.Context, lookupKey string) (*models.Secret, error) {
	query := `
		SELECT lookup_key, ciphertext, created_at, expires_at FROM secrets
		WHERE lookup_key = $1 AND (expires_at IS NULL OR expires_at > $2);
	`
	var item models.Secret
	err := r.db.QueryRowContext(ctx, query, lookupKey, time.Now()).
		Scan(&item.LookupKey, &item.Ciphertext, &item.CreatedAt, &item.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return &item, nil
}

// Delete removes the record. Deleting an absent key is a no-op.
func (r *PostgresRepository) Delete(ctx context.Context, lookupKey string) error {
	query := `DELETE FROM secrets WHERE lookup_key = $1;`
	if _, err := r.db.ExecContext(ctx, query, lookupKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired removes every record whose expiry is at or before now and
// returns the number of rows reclaimed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM secrets WHERE expires_at IS NOT NULL AND expires_at <= $1;`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
