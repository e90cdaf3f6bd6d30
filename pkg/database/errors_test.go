package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40001"}))
	assert.True(t, IsSerializationFailure(&pq.Error{Code: "40P01"}))
	assert.False(t, IsSerializationFailure(&pq.Error{Code: "23505"}))
	assert.False(t, IsSerializationFailure(fmt.Errorf("plain error")))
	assert.False(t, IsSerializationFailure(nil))
}

func TestIsSerializationFailure_Wrapped(t *testing.T) {
	err := fmt.Errorf("failed to commit transaction: %w", &pq.Error{Code: "40001"})
	assert.True(t, IsSerializationFailure(err))
}

func TestMapPQError_SerialUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23505",
		Constraint: "items_serial_number_key",
		Detail:     "Key (serial_number)=(SN1) already exists.",
	}

	mapped := MapPQError(pqErr)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrDuplicateSerial))
	assert.Contains(t, mapped.Message, "SN1")
}

func TestMapPQError_ConservationCheckViolation(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23514",
		Constraint: "batches_quantity_conservation",
	}

	mapped := MapPQError(pqErr)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrInternal))
}

func TestMapPQError_StatusCheckViolation(t *testing.T) {
	pqErr := &pq.Error{
		Code:       "23514",
		Constraint: "items_status_valid",
	}

	mapped := MapPQError(pqErr)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrValidation))
}

func TestMapPQError_ForeignKeyViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23503"}

	mapped := MapPQError(pqErr)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrBadRequest))
}

func TestMapPQError_NotNullViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23502", Column: "sku"}

	mapped := MapPQError(pqErr)
	require.NotNil(t, mapped)
	assert.True(t, errors.Is(mapped, errors.ErrValidation))
	assert.Equal(t, "must not be empty", mapped.Details["sku"])
}

func TestMapPQError_PassesThroughUnknown(t *testing.T) {
	assert.Nil(t, MapPQError(fmt.Errorf("not a pq error")))
	assert.Nil(t, MapPQError(&pq.Error{Code: "40001"}))
	assert.Nil(t, MapPQError(nil))
}

func TestExtractDetailValue(t *testing.T) {
	assert.Equal(t, "SN1", extractDetailValue("Key (serial_number)=(SN1) already exists."))
	assert.Equal(t, "", extractDetailValue("no parentheses here"))
}
