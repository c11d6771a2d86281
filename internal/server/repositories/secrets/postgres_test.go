package secrets

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/onetimesecret/internal/common"
	"github.com/dmitrijs2005/onetimesecret/internal/server/models"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleSecret() *models.Secret {
	expires := time.Now().Add(time.Hour)
	return &models.Secret{
		LookupKey:  "ab12cd34",
		Ciphertext: []byte{0x01, 0x02, 0x03},
		CreatedAt:  time.Now(),
		ExpiresAt:  &expires,
	}
}

func TestPostgresRepository_Create_OK(t *testing.T) {
	repo, mock := newMock(t)
	s := sampleSecret()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO secrets`)).
		WithArgs(s.LookupKey, s.Ciphertext, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_DuplicateKey(t *testing.T) {
	repo, mock := newMock(t)
	s := sampleSecret()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO secrets`)).
		WithArgs(s.LookupKey, s.Ciphertext, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, common.ErrorDuplicateKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_DBError(t *testing.T) {
	repo, mock := newMock(t)
	s := sampleSecret()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO secrets`)).
		WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), s)
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
}

func TestPostgresRepository_Get_OK(t *testing.T) {
	repo, mock := newMock(t)
	s := sampleSecret()

	rows := sqlmock.NewRows([]string{"lookup_key", "ciphertext", "created_at", "expires_at"}).
		AddRow(s.LookupKey, s.Ciphertext, s.CreatedAt, s.ExpiresAt)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lookup_key, ciphertext, created_at, expires_at FROM secrets`)).
		WithArgs(s.LookupKey, sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), s.LookupKey)
	require.NoError(t, err)
	assert.Equal(t, s.LookupKey, got.LookupKey)
	assert.Equal(t, s.Ciphertext, got.Ciphertext)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lookup_key, ciphertext, created_at, expires_at FROM secrets`)).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"lookup_key", "ciphertext", "created_at", "expires_at"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresRepository_Get_DBError(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT lookup_key, ciphertext, created_at, expires_at FROM secrets`)).
		WillReturnError(errors.New("broken pipe"))

	_, err := repo.Get(context.Background(), "any")
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
}

func TestPostgresRepository_Delete_Idempotent(t *testing.T) {
	repo, mock := newMock(t)

	// zero rows affected is still a success
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM secrets WHERE lookup_key = $1;`)).
		WithArgs("absent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "absent"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Delete_DBError(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM secrets WHERE lookup_key = $1;`)).
		WillReturnError(errors.New("down"))

	err := repo.Delete(context.Background(), "k")
	assert.ErrorIs(t, err, common.ErrorStoreUnavailable)
}

func TestPostgresRepository_DeleteExpired(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM secrets WHERE expires_at IS NOT NULL AND expires_at <= $1;`)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
