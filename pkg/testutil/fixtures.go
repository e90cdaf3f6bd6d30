package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
)

// TestActor returns a deterministic acting user for tests
func TestActor() *actor.Actor {
	return &actor.Actor{
		ID:       "6f1d8a9e-0c2b-4f3a-9d4e-5b6c7d8e9f0a",
		Name:     "Test Operator",
		Email:    "operator@stocktrace.test",
		RoleName: "warehouse",
	}
}

// SecondTestActor returns a distinct acting user for multi-actor tests
func SecondTestActor() *actor.Actor {
	return &actor.Actor{
		ID:       "a0f9e8d7-c6b5-4a3f-8e2d-1c0b9a8f7e6d",
		Name:     "Second Operator",
		Email:    "second@stocktrace.test",
		RoleName: "warehouse",
	}
}

// NewUUID returns a fresh uuid string, failing the test on the impossible
func NewUUID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id.String()
}

// FixedTime returns a stable timestamp for deterministic assertions
func FixedTime() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}
