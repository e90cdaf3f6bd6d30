package repository_test

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

var suite *testutil.Suite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create test suite: %v", err)
	}

	code := m.Run()
	suite.Close(ctx)
	os.Exit(code)
}

// createTestBatch inserts a batch of the given size with all units available
func createTestBatch(t *testing.T, ctx context.Context, sku string, quantity int) *repository.Batch {
	t.Helper()

	batch := &repository.Batch{
		SKU:               sku,
		ProductName:       "Product " + sku,
		TotalQuantity:     quantity,
		AvailableQuantity: quantity,
		Source:            repository.BatchSourceNewArrival,
		ReceivedDate:      time.Now().UTC(),
		ReceivedBy:        testutil.TestActor().ID,
		SerialsUnassigned: quantity,
	}

	repo := repository.NewBatchRepository(suite.DB)
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.CreateTx(ctx, tx, batch)
	})
	require.NoError(t, err)
	return batch
}

// createTestItem inserts one available item into the batch
func createTestItem(t *testing.T, ctx context.Context, batchID string) *repository.Item {
	t.Helper()

	item := &repository.Item{
		BatchID: batchID,
		Status:  repository.ItemStatusAvailable,
	}

	repo := repository.NewItemRepository(suite.DB)
	err := suite.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return repo.InsertTx(ctx, tx, item)
	})
	require.NoError(t, err)
	return item
}
