package repository_test

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkOperationRepository_CreateAndFinalize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-BULK", 2)
	first := createTestItem(t, ctx, batch.ID)
	second := createTestItem(t, ctx, batch.ID)

	repo := repository.NewBulkOperationRepository(suite.DB)
	op := &repository.BulkOperation{
		BatchID:     batch.ID,
		ItemIDs:     pq.StringArray{first.ID, second.ID},
		PerformedBy: testutil.TestActor().ID,
	}
	require.NoError(t, repo.Create(ctx, op))
	assert.NotEmpty(t, op.ID)
	assert.Equal(t, repository.BulkStatusInProgress, op.Status)
	assert.Equal(t, 2, op.TotalCount)
	assert.False(t, op.StartedAt.IsZero())

	require.NoError(t, repo.Finalize(ctx, op.ID, 1, 1, []string{first.ID + ": duplicate serial"}))

	got, err := repo.GetByID(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.BulkStatusCompleted, got.Status)
	assert.Equal(t, 1, got.SuccessCount)
	assert.Equal(t, 1, got.FailureCount)
	require.Len(t, got.Errors, 1)
	assert.NotNil(t, got.CompletedAt)
}

func TestBulkOperationRepository_FinalizeTwiceConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-BULK2", 1)
	item := createTestItem(t, ctx, batch.ID)

	repo := repository.NewBulkOperationRepository(suite.DB)
	op := &repository.BulkOperation{
		BatchID:     batch.ID,
		ItemIDs:     pq.StringArray{item.ID},
		PerformedBy: testutil.TestActor().ID,
	}
	require.NoError(t, repo.Create(ctx, op))
	require.NoError(t, repo.Finalize(ctx, op.ID, 1, 0, nil))

	err := repo.Finalize(ctx, op.ID, 0, 1, []string{"late"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestBulkOperationRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)

	repo := repository.NewBulkOperationRepository(suite.DB)
	_, err := repo.GetByID(context.Background(), testutil.NewUUID(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestBulkOperationRepository_ListByBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-BULK3", 1)
	item := createTestItem(t, ctx, batch.ID)

	repo := repository.NewBulkOperationRepository(suite.DB)
	for i := 0; i < 2; i++ {
		op := &repository.BulkOperation{
			BatchID:     batch.ID,
			ItemIDs:     pq.StringArray{item.ID},
			PerformedBy: testutil.TestActor().ID,
		}
		require.NoError(t, repo.Create(ctx, op))
	}

	ops, err := repo.ListByBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}
