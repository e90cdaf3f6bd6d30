package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	plain := New("TEST", "something broke", http.StatusInternalServerError)
	assert.Equal(t, "something broke", plain.Error())

	wrapped := Wrap(fmt.Errorf("db down"), "TEST", "something broke", http.StatusInternalServerError)
	assert.Equal(t, "something broke: db down", wrapped.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		sentinel   error
		code       string
		statusCode int
	}{
		{"not found", NotFound("batch"), ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"validation", Validation(map[string]string{"quantity": "must be at least 1"}), ErrValidation, "VALIDATION_ERROR", http.StatusBadRequest},
		{"duplicate serial", DuplicateSerialNumber("SN1"), ErrDuplicateSerial, "DUPLICATE_SERIAL_NUMBER", http.StatusConflict},
		{"already assigned", AlreadyAssigned("item-1"), ErrAlreadyAssigned, "SERIAL_ALREADY_ASSIGNED", http.StatusConflict},
		{"insufficient stock", InsufficientStock("SKU1"), ErrInsufficientStock, "INSUFFICIENT_STOCK", http.StatusConflict},
		{"transaction conflict", TransactionConflict(), ErrTransactionConflict, "TRANSACTION_CONFLICT", http.StatusConflict},
		{"token expired", TokenExpired(), ErrTokenExpired, "TOKEN_EXPIRED", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.statusCode, tt.err.StatusCode)
			assert.True(t, Is(tt.err, tt.sentinel))
		})
	}
}

func TestIs_DistinguishesSentinels(t *testing.T) {
	err := DuplicateSerialNumber("SN1")
	assert.True(t, Is(err, ErrDuplicateSerial))
	assert.False(t, Is(err, ErrAlreadyAssigned))
	assert.False(t, Is(err, ErrNotFound))
}

func TestAs(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("wrapped: %w", InsufficientStock("SKU1"))
	assert.True(t, As(err, &appErr))
	assert.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}

func TestValidation_CarriesDetails(t *testing.T) {
	err := Validation(map[string]string{"serial_number": "is required"})
	assert.Equal(t, "is required", err.Details["serial_number"])
}

func TestWithDetails(t *testing.T) {
	err := BadRequest("bad input").WithDetails(map[string]string{"field": "reason"})
	assert.Equal(t, "reason", err.Details["field"])
}
