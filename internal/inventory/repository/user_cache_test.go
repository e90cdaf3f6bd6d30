package repository_test

import (
	"context"
	"testing"

	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCacheRepository_SetUpserts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	repo := repository.NewUserCacheRepository(suite.DB)
	id := testutil.NewUUID(t)

	require.NoError(t, repo.Set(ctx, &repository.CachedUser{
		ID:       id,
		Email:    "old@stocktrace.test",
		Name:     "Old Name",
		RoleName: "warehouse",
	}))

	require.NoError(t, repo.Set(ctx, &repository.CachedUser{
		ID:       id,
		Email:    "new@stocktrace.test",
		Name:     "New Name",
		RoleName: "manager",
	}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new@stocktrace.test", got.Email)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "manager", got.RoleName)
}

func TestUserCacheRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	repo := repository.NewUserCacheRepository(suite.DB)
	id := testutil.NewUUID(t)

	require.NoError(t, repo.Set(ctx, &repository.CachedUser{
		ID:       id,
		Email:    "user@stocktrace.test",
		Name:     "User",
		RoleName: "warehouse",
	}))
	require.NoError(t, repo.Delete(ctx, id))

	_, err := repo.Get(ctx, id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// deleting an already-deleted user is fine
	require.NoError(t, repo.Delete(ctx, id))
}
