package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/secrets"
)

// SqliteRepositoryManager owns an embedded SQLite database wrapped in bun.
type SqliteRepositoryManager struct {
	db      *sql.DB
	secrets *secrets.SqliteRepository
}

func (m *SqliteRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SqliteRepositoryManager) Secrets() secrets.Repository {
	return m.secrets
}

// RunMigrations lets the repository create its schema; SQLite does not go
// through goose.
func (m *SqliteRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.secrets.CreateSchema(ctx)
}

func (m *SqliteRepositoryManager) Close() error {
	return m.db.Close()
}

// NewSqliteRepositoryManager opens (or creates) the database file and
// prepares the schema. A single writer connection avoids SQLITE_BUSY on
// concurrent writes.
func NewSqliteRepositoryManager(ctx context.Context, path string) (*SqliteRepositoryManager, error) {

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	m := &SqliteRepositoryManager{
		db:      sqldb,
		secrets: secrets.NewSqliteRepository(db),
	}

	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
