package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
	"github.com/stocktrace/stocktrace-backend/pkg/messaging"
)

// AssignSerialInput is the input for AssignSerialNumber
type AssignSerialInput struct {
	SerialNumber string  `json:"serial_number" validate:"required,min=1,max=128"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AssignSerialNumber binds a serial number to an item that has none, updates
// the owning batch's assignment counters and appends a ledger entry, all in
// one transaction. The unique index on items.serial_number re-validates
// uniqueness at commit, so the in-transaction existence check closing first
// does not matter for correctness, only for error quality.
func (s *InventoryService) AssignSerialNumber(ctx context.Context, itemID string, input *AssignSerialInput, act *actor.Actor) error {
	var boundBatchID string

	err := s.serializable(ctx, func(tx *sqlx.Tx) error {
		item, err := s.items.GetTx(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.SerialNumber != nil {
			return errors.AlreadyAssigned(itemID)
		}

		existing, err := s.items.ExistingSerialsTx(ctx, tx, []string{input.SerialNumber})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errors.DuplicateSerialNumber(input.SerialNumber)
		}

		batch, err := s.batches.GetTx(ctx, tx, item.BatchID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.items.BindSerialTx(ctx, tx, item.ID, input.SerialNumber, act.ID, now); err != nil {
			return err
		}
		if err := s.batches.ApplySerialAssignedTx(ctx, tx, batch.ID); err != nil {
			return err
		}

		entry := &repository.LedgerEvent{
			SerialNumber: input.SerialNumber,
			ItemID:       item.ID,
			BatchID:      batch.ID,
			SKU:          batch.SKU,
			Action:       repository.LedgerActionAssigned,
			ActorID:      act.ID,
			Notes:        input.Notes,
		}
		if err := s.ledger.AppendTx(ctx, tx, entry); err != nil {
			return err
		}

		boundBatchID = batch.ID
		return nil
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	}

	s.publisher.PublishSerialAssigned(ctx, messaging.SerialAssignedEvent{
		ItemID:       itemID,
		BatchID:      boundBatchID,
		SerialNumber: input.SerialNumber,
		AssignedBy:   act.ID,
	})

	s.logger.Info().
		Str("item_id", itemID).
		Str("serial_number", input.SerialNumber).
		Msg("serial number assigned")

	return nil
}

// SerialValidationResult is what ValidateSerialNumber reports
type SerialValidationResult struct {
	Exists        bool                      `json:"exists"`
	Item          *repository.Item          `json:"item,omitempty"`
	Batch         *repository.Batch         `json:"batch,omitempty"`
	CurrentStatus string                    `json:"current_status,omitempty"`
	ReturnHistory []*repository.LedgerEvent `json:"return_history"`
}

// ValidateSerialNumber is a pure lookup with no side effects. Callers use it
// to decide whether scanned input resumes an existing unit or registers a new
// one.
func (s *InventoryService) ValidateSerialNumber(ctx context.Context, serial string) (*SerialValidationResult, error) {
	item, err := s.items.GetBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return &SerialValidationResult{Exists: false, ReturnHistory: []*repository.LedgerEvent{}}, nil
		}
		return nil, err
	}

	batch, err := s.batches.GetByID(ctx, item.BatchID)
	if err != nil {
		return nil, err
	}

	returns, err := s.ledger.ListReturnsBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if returns == nil {
		returns = []*repository.LedgerEvent{}
	}

	return &SerialValidationResult{
		Exists:        true,
		Item:          item,
		Batch:         batch,
		CurrentStatus: item.Status,
		ReturnHistory: returns,
	}, nil
}

// GetSerialHistory returns the full ledger trail of a serial number
func (s *InventoryService) GetSerialHistory(ctx context.Context, serial string) ([]*repository.LedgerEvent, error) {
	events, err := s.ledger.ListBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.NotFound("serial number")
	}
	return events, nil
}
