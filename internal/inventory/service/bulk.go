package service

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/messaging"
)

// BulkAssignment is one (item, serial) pair of a bulk run
type BulkAssignment struct {
	ItemID       string `json:"item_id" validate:"required,uuid"`
	SerialNumber string `json:"serial_number" validate:"required,min=1,max=128"`
}

// BulkAssignInput is the input for BulkAssign
type BulkAssignInput struct {
	Assignments []BulkAssignment `json:"assignments" validate:"required,min=1,max=1000,dive"`
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// BulkAssignResult aggregates the outcome of a bulk run
type BulkAssignResult struct {
	OperationID string   `json:"operation_id"`
	Successful  int      `json:"successful"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors"`
}

// BulkAssign applies many serial assignments as independent per-item
// transactions. One bad pair never blocks or rolls back the others; the
// envelope records the aggregated outcome exactly once. Callers that see
// Successful == 0 must treat the whole run as failed.
func (s *InventoryService) BulkAssign(ctx context.Context, batchID string, input *BulkAssignInput, act *actor.Actor) (*BulkAssignResult, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]string, len(input.Assignments))
	for i, a := range input.Assignments {
		itemIDs[i] = a.ItemID
	}

	op := &repository.BulkOperation{
		BatchID:     batch.ID,
		ItemIDs:     pq.StringArray(itemIDs),
		PerformedBy: act.ID,
	}
	if err := s.bulkOps.Create(ctx, op); err != nil {
		return nil, err
	}

	var successful, failed int
	var opErrors []string

	for _, a := range input.Assignments {
		if err := s.assignWithinBatch(ctx, batch.ID, a, input.Notes, act); err != nil {
			failed++
			opErrors = append(opErrors, fmt.Sprintf("%s: %s", a.ItemID, errorMessage(err)))
			s.logger.Warn().
				Err(err).
				Str("operation_id", op.ID).
				Str("item_id", a.ItemID).
				Msg("bulk assignment pair failed")
			continue
		}
		successful++
	}

	if err := s.bulkOps.Finalize(ctx, op.ID, successful, failed, opErrors); err != nil {
		return nil, err
	}

	s.publisher.PublishBulkCompleted(ctx, messaging.BulkCompletedEvent{
		OperationID: op.ID,
		Successful:  successful,
		Failed:      failed,
		CreatedBy:   act.ID,
	})

	s.logger.Info().
		Str("operation_id", op.ID).
		Int("successful", successful).
		Int("failed", failed).
		Msg("bulk assignment completed")

	return &BulkAssignResult{
		OperationID: op.ID,
		Successful:  successful,
		Failed:      failed,
		Errors:      opErrors,
	}, nil
}

// assignWithinBatch runs one pair of a bulk run. The batch membership check
// keeps a bulk run scoped to the batch it was submitted for.
func (s *InventoryService) assignWithinBatch(ctx context.Context, batchID string, a BulkAssignment, notes *string, act *actor.Actor) error {
	item, err := s.items.GetByID(ctx, a.ItemID)
	if err != nil {
		return err
	}
	if item.BatchID != batchID {
		return errors.BadRequest("item does not belong to this batch")
	}

	return s.AssignSerialNumber(ctx, a.ItemID, &AssignSerialInput{
		SerialNumber: a.SerialNumber,
		Notes:        notes,
	}, act)
}

// GetBulkOperation returns the persisted envelope of a bulk run
func (s *InventoryService) GetBulkOperation(ctx context.Context, id string) (*repository.BulkOperation, error) {
	return s.bulkOps.GetByID(ctx, id)
}

func errorMessage(err error) string {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
