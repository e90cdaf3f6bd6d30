package service_test

import (
	"context"
	"testing"

	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/service"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignSerialNumber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()
	svc := newTestService()

	result, err := svc.CreateBatch(ctx, newArrivalInput(t, "SKU1", 2), testutil.TestActor())
	require.NoError(t, err)

	err = svc.AssignSerialNumber(ctx, result.ItemIDs[0], &service.AssignSerialInput{
		SerialNumber: "SN-100",
		Notes:        strPtr("scanned at intake"),
	}, testutil.TestActor())
	require.NoError(t, err)

	batch, items, err := svc.GetBatch(ctx, result.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.SerialsAssigned)
	assert.Equal(t, 1, batch.SerialsUnassigned)
	requireConservation(t, batch)

	var bound *repository.Item
	for _, item := range items {
		if item.ID == result.ItemIDs[0] {
			bound = item
		}
	}
	require.NotNil(t, bound)
	require.NotNil(t, bound.SerialNumber)
	assert.Equal(t, "SN-100", *bound.SerialNumber)
	assert.Equal(t, testutil.TestActor().ID, *bound.AssignedBy)

	history, err := svc.GetSerialHistory(ctx, "SN-100")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, repository.LedgerActionAssigned, history[0].Action)
}

func TestAssignSerialNumber_DuplicateLeavesStateUnchanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()
	svc := newTestService()

	result, err := svc.CreateBatch(ctx, newArrivalInput(t, "SKU1", 2), testutil.TestActor())
	require.NoError(t, err)

	require.NoError(t, svc.AssignSerialNumber(ctx, result.ItemIDs[0],
		&service.AssignSerialInput{SerialNumber: "SN-DUP"}, testutil.TestActor()))

	err = svc.AssignSerialNumber(ctx, result.ItemIDs[1],
		&service.AssignSerialInput{SerialNumber: "SN-DUP"}, testutil.TestActor())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateSerial))

	// the second call must not have touched the batch counters or the item
	batch, items, err := svc.GetBatch(ctx, result.BatchID)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.SerialsAssigned)
	assert.Equal(t, 1, batch.SerialsUnassigned)
	requireConservation(t, batch)

	for _, item := range items {
		if item.ID == result.ItemIDs[1] {
			assert.Nil(t, item.SerialNumber)
		}
	}
}

func TestAssignSerialNumber_AlreadyAssigned(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()
	svc := newTestService()

	result, err := svc.CreateBatch(ctx, newArrivalInput(t, "SKU1", 1, "SN-FIRST"), testutil.TestActor())
	require.NoError(t, err)

	err = svc.AssignSerialNumber(ctx, result.ItemIDs[0],
		&service.AssignSerialInput{SerialNumber: "SN-SECOND"}, testutil.TestActor())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAlreadyAssigned))
}

func TestAssignSerialNumber_ItemNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	svc := newTestService()

	err := svc.AssignSerialNumber(context.Background(), testutil.NewUUID(t),
		&service.AssignSerialInput{SerialNumber: "SN-NOWHERE"}, testutil.TestActor())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestValidateSerialNumber_Unknown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	svc := newTestService()

	result, err := svc.ValidateSerialNumber(context.Background(), "SN-UNKNOWN")
	require.NoError(t, err)
	assert.False(t, result.Exists)
	assert.Nil(t, result.Item)
	assert.Empty(t, result.ReturnHistory)
}

func TestValidateSerialNumber_Known(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	ctx := context.Background()
	svc := newTestService()

	created, err := svc.CreateBatch(ctx, newArrivalInput(t, "SKU1", 1, "SN1"), testutil.TestActor())
	require.NoError(t, err)

	result, err := svc.ValidateSerialNumber(ctx, "SN1")
	require.NoError(t, err)
	assert.True(t, result.Exists)
	require.NotNil(t, result.Item)
	assert.Equal(t, created.ItemIDs[0], result.Item.ID)
	require.NotNil(t, result.Batch)
	assert.Equal(t, created.BatchID, result.Batch.ID)
	assert.Equal(t, repository.ItemStatusAvailable, result.CurrentStatus)
}

func TestGetSerialHistory_Unknown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Reset(t)
	svc := newTestService()

	_, err := svc.GetSerialHistory(context.Background(), "SN-NOWHERE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
