package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindSerial(t *testing.T, ctx context.Context, itemID, serial string) error {
	t.Helper()
	repo := repository.NewItemRepository(suite.DB)
	return suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.BindSerialTx(ctx, tx, itemID, serial, testutil.TestActor().ID, time.Now().UTC())
	})
}

func TestItemRepository_InsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-ITEM", 1)
	item := createTestItem(t, ctx, batch.ID)
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	repo := repository.NewItemRepository(suite.DB)
	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, got.BatchID)
	assert.Equal(t, repository.ItemStatusAvailable, got.Status)
	assert.Nil(t, got.SerialNumber)
}

func TestItemRepository_BindSerialTx(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-BIND", 1)
	item := createTestItem(t, ctx, batch.ID)

	require.NoError(t, bindSerial(t, ctx, item.ID, "SN-BIND"))

	repo := repository.NewItemRepository(suite.DB)
	got, err := repo.GetBySerial(ctx, "SN-BIND")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	require.NotNil(t, got.AssignedDate)
	require.NotNil(t, got.AssignedBy)
}

func TestItemRepository_BindSerialTx_RefusesSecondBind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-REBIND", 1)
	item := createTestItem(t, ctx, batch.ID)

	require.NoError(t, bindSerial(t, ctx, item.ID, "SN-FIRST"))

	err := bindSerial(t, ctx, item.ID, "SN-SECOND")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyAssigned))
}

func TestItemRepository_UniqueIndexRejectsDuplicateSerial(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-UNIQ", 2)
	first := createTestItem(t, ctx, batch.ID)
	second := createTestItem(t, ctx, batch.ID)

	require.NoError(t, bindSerial(t, ctx, first.ID, "SN-UNIQ"))

	err := bindSerial(t, ctx, second.ID, "SN-UNIQ")
	require.Error(t, err)

	mapped := database.MapPQError(err)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrDuplicateSerial))
	assert.Contains(t, mapped.Message, "SN-UNIQ")
}

func TestItemRepository_ExistingSerialsTx(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-EXIST", 2)
	item := createTestItem(t, ctx, batch.ID)
	createTestItem(t, ctx, batch.ID)

	require.NoError(t, bindSerial(t, ctx, item.ID, "SN-KNOWN"))

	repo := repository.NewItemRepository(suite.DB)
	var existing []string
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		existing, txErr = repo.ExistingSerialsTx(ctx, tx, []string{"SN-KNOWN", "SN-UNKNOWN"})
		return txErr
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SN-KNOWN"}, existing)
}

func TestItemRepository_OldestAvailableBySKUTx(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-FIFO", 3)
	oldest := createTestItem(t, ctx, batch.ID)
	createTestItem(t, ctx, batch.ID)
	createTestItem(t, ctx, batch.ID)

	repo := repository.NewItemRepository(suite.DB)
	var picked *repository.Item
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		var txErr error
		picked, txErr = repo.OldestAvailableBySKUTx(ctx, tx, "SKU-FIFO")
		return txErr
	})
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, picked.ID)
}

func TestItemRepository_OldestAvailableBySKUTx_NoStock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	repo := repository.NewItemRepository(suite.DB)
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		_, txErr := repo.OldestAvailableBySKUTx(ctx, tx, "SKU-NONE")
		return txErr
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
}

func TestItemRepository_MarkDeliveredTx(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-MARK", 1)
	item := createTestItem(t, ctx, batch.ID)
	deliveryID := testutil.NewUUID(t)

	repo := repository.NewItemRepository(suite.DB)
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.MarkDeliveredTx(ctx, tx, item.ID, deliveryID)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.ItemStatusDelivered, got.Status)
	require.NotNil(t, got.DeliveryID)
	assert.Equal(t, deliveryID, *got.DeliveryID)

	// a delivered item can not be delivered again
	err = suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.MarkDeliveredTx(ctx, tx, item.ID, testutil.NewUUID(t))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestItemRepository_CountSerials(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()

	batch := createTestBatch(t, ctx, "SKU-COUNT", 3)
	item := createTestItem(t, ctx, batch.ID)
	createTestItem(t, ctx, batch.ID)
	createTestItem(t, ctx, batch.ID)

	require.NoError(t, bindSerial(t, ctx, item.ID, "SN-COUNT"))

	repo := repository.NewItemRepository(suite.DB)
	withSerial, withoutSerial, err := repo.CountSerials(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), withSerial)
	assert.Equal(t, int64(2), withoutSerial)
}
