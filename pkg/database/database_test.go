package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/logger"
	"github.com/stocktrace/stocktrace-backend/pkg/testutil"
)

func newMockDatabase(t *testing.T) (*database.DB, *testutil.MockDB) {
	t.Helper()
	mock := testutil.NewMockDB(t)
	return database.NewFromSqlx(mock.DB, logger.New("database-test", "test")), mock
}

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.Mock.ExpectBegin()
	mock.Mock.ExpectCommit()

	err := db.Transaction(context.Background(), func(tx *sqlx.Tx) error {
		return nil
	})
	require.NoError(t, err)
	mock.ExpectationsMet(t)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.Mock.ExpectBegin()
	mock.Mock.ExpectRollback()

	wantErr := errors.NotFound("batch")
	err := db.Transaction(context.Background(), func(tx *sqlx.Tx) error {
		return wantErr
	})
	require.ErrorIs(t, err, errors.ErrNotFound)
	mock.ExpectationsMet(t)
}

func TestSerializable_RetriesSerializationFailure(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.Mock.ExpectBegin()
	mock.Mock.ExpectRollback()
	mock.Mock.ExpectBegin()
	mock.Mock.ExpectCommit()

	calls := 0
	err := db.Serializable(context.Background(), 3, time.Millisecond, func(tx *sqlx.Tx) error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	mock.ExpectationsMet(t)
}

func TestSerializable_ExhaustsRetriesIntoConflict(t *testing.T) {
	db, mock := newMockDatabase(t)
	for i := 0; i < 3; i++ {
		mock.Mock.ExpectBegin()
		mock.Mock.ExpectRollback()
	}

	calls := 0
	err := db.Serializable(context.Background(), 2, time.Millisecond, func(tx *sqlx.Tx) error {
		calls++
		return &pq.Error{Code: "40001"}
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransactionConflict))
	assert.Equal(t, 3, calls)
	mock.ExpectationsMet(t)
}

func TestSerializable_DoesNotRetryOtherErrors(t *testing.T) {
	db, mock := newMockDatabase(t)
	mock.Mock.ExpectBegin()
	mock.Mock.ExpectRollback()

	calls := 0
	err := db.Serializable(context.Background(), 3, time.Millisecond, func(tx *sqlx.Tx) error {
		calls++
		return errors.DuplicateSerialNumber("SN1")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateSerial))
	assert.Equal(t, 1, calls)
	mock.ExpectationsMet(t)
}
