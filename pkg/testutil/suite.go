package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/logger"
)

// Suite bundles the shared test database for integration tests. Start it
// once in TestMain, then call Reset between tests.
type Suite struct {
	Container *PostgresContainer
	DB        *database.DB
	Raw       *sqlx.DB
	Logger    *logger.Logger
}

// NewSuite starts a PostgreSQL container and applies the inventory schema
func NewSuite(ctx context.Context) (*Suite, error) {
	container, err := NewPostgresContainer(ctx, DefaultPostgresConfig())
	if err != nil {
		return nil, err
	}

	raw, err := container.Connect(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	if err := ApplySchema(ctx, raw); err != nil {
		raw.Close()
		container.Terminate(ctx)
		return nil, err
	}

	log := logger.New("test", "test")
	db, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		raw.Close()
		container.Terminate(ctx)
		return nil, err
	}

	return &Suite{
		Container: container,
		DB:        db,
		Raw:       raw,
		Logger:    log,
	}, nil
}

// Reset truncates all tables so the next test starts from a clean slate
func (s *Suite) Reset(t *testing.T) {
	t.Helper()
	require.NoError(t, TruncateAll(context.Background(), s.Raw))
}

// Close tears down the suite
func (s *Suite) Close(ctx context.Context) {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Raw != nil {
		s.Raw.Close()
	}
	if s.Container != nil {
		s.Container.Terminate(ctx)
	}
}
