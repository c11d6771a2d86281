package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/onetimesecret/internal/server/repositories/secrets"
)

// InMemoryRepositoryManager serves the process-local store used by
// development setups and tests.
type InMemoryRepositoryManager struct {
	secrets secrets.Repository
}

func (m *InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Secrets() secrets.Repository {
	return m.secrets
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{secrets: secrets.NewInMemoryRepository()}
}
