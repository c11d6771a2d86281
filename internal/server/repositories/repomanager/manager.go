// Package repomanager owns the storage backend selected by the database DSN
// and hands out repositories bound to it.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/secrets"
)

// RepositoryManager owns the DB handle (if any) behind the secret store.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Secrets() secrets.Repository
	Close() error
}

// New selects a backend by DSN:
//
//	""  or "inmemory"       → process-local map (development, tests)
//	"sqlite:<path>"         → embedded SQLite via bun
//	"postgres://..."        → PostgreSQL via pgx
//
// Migrations are applied before the manager is returned.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	switch {
	case dsn == "" || dsn == "inmemory":
		return NewInMemoryRepositoryManager(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSqliteRepositoryManager(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresRepositoryManager(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported database DSN: %q", dsn)
	}
}
