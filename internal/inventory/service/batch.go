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

// PackageRef identifies the inbound package a batch was received from
type PackageRef struct {
	PackageID string `json:"package_id" validate:"required,uuid"`
}

// ReturnRef identifies the processed return a batch was rebuilt from
type ReturnRef struct {
	ReturnID string `json:"return_id" validate:"required,uuid"`
}

// SourceDescriptor is a tagged variant: exactly one of Package or Return is
// set. It decides the batch source and the initial status of its items.
type SourceDescriptor struct {
	Package *PackageRef `json:"package,omitempty"`
	Return  *ReturnRef  `json:"return,omitempty"`
}

// CreateBatchInput is the input for CreateBatch
type CreateBatchInput struct {
	SKU                string           `json:"sku" validate:"required,min=1,max=64"`
	ProductName        string           `json:"product_name" validate:"required,min=1,max=255"`
	Quantity           int              `json:"quantity" validate:"required,min=1,max=1000"`
	Source             SourceDescriptor `json:"source"`
	ReceivedDate       *time.Time       `json:"received_date,omitempty"`
	PreAssignedSerials []string         `json:"pre_assigned_serials,omitempty" validate:"max=1000,dive,min=1,max=128"`
	Notes              *string          `json:"notes,omitempty"`
}

// CreateBatchResult reports the created batch and its items in creation order
type CreateBatchResult struct {
	BatchID string   `json:"batch_id"`
	ItemIDs []string `json:"item_ids"`
}

func (in *CreateBatchInput) resolveSource() (source string, reference *string, err error) {
	switch {
	case in.Source.Package != nil && in.Source.Return != nil:
		return "", nil, errors.Validation(map[string]string{
			"source": "must reference either a package or a return, not both",
		})
	case in.Source.Package != nil:
		return repository.BatchSourceNewArrival, &in.Source.Package.PackageID, nil
	case in.Source.Return != nil:
		return repository.BatchSourceFromReturn, &in.Source.Return.ReturnID, nil
	default:
		return "", nil, errors.Validation(map[string]string{
			"source": "must reference a package or a return",
		})
	}
}

// CreateBatch atomically creates a batch and its full complement of items.
// The first len(PreAssignedSerials) items are bound to the given serials,
// each with a ledger entry. Either everything commits or nothing does.
func (s *InventoryService) CreateBatch(ctx context.Context, input *CreateBatchInput, act *actor.Actor) (*CreateBatchResult, error) {
	if input.Quantity < 1 {
		return nil, errors.Validation(map[string]string{
			"quantity": "must be at least 1",
		})
	}
	if len(input.PreAssignedSerials) > input.Quantity {
		return nil, errors.Validation(map[string]string{
			"pre_assigned_serials": "must not exceed quantity",
		})
	}
	seen := make(map[string]struct{}, len(input.PreAssignedSerials))
	for _, serial := range input.PreAssignedSerials {
		if _, dup := seen[serial]; dup {
			return nil, errors.DuplicateSerialNumber(serial)
		}
		seen[serial] = struct{}{}
	}

	source, sourceRef, err := input.resolveSource()
	if err != nil {
		return nil, err
	}

	itemStatus := repository.ItemStatusAvailable
	var returnID *string
	if source == repository.BatchSourceFromReturn {
		itemStatus = repository.ItemStatusReturned
		returnID = sourceRef
	}

	receivedDate := time.Now().UTC()
	if input.ReceivedDate != nil {
		receivedDate = *input.ReceivedDate
	}

	batch := &repository.Batch{
		SKU:               input.SKU,
		ProductName:       input.ProductName,
		TotalQuantity:     input.Quantity,
		AvailableQuantity: input.Quantity,
		Source:            source,
		SourceReference:   sourceRef,
		ReceivedDate:      receivedDate,
		ReceivedBy:        act.ID,
		SerialsAssigned:   len(input.PreAssignedSerials),
		SerialsUnassigned: input.Quantity - len(input.PreAssignedSerials),
		BatchNotes:        input.Notes,
	}

	itemIDs := make([]string, 0, input.Quantity)

	err = s.serializable(ctx, func(tx *sqlx.Tx) error {
		if len(input.PreAssignedSerials) > 0 {
			existing, err := s.items.ExistingSerialsTx(ctx, tx, input.PreAssignedSerials)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return errors.DuplicateSerialNumber(existing[0])
			}
		}

		if err := s.batches.CreateTx(ctx, tx, batch); err != nil {
			return err
		}

		for i := 0; i < input.Quantity; i++ {
			item := &repository.Item{
				BatchID:  batch.ID,
				Status:   itemStatus,
				ReturnID: returnID,
			}
			if i < len(input.PreAssignedSerials) {
				serial := input.PreAssignedSerials[i]
				item.SerialNumber = &serial
				item.AssignedDate = &receivedDate
				item.AssignedBy = &act.ID
			}
			if err := s.items.InsertTx(ctx, tx, item); err != nil {
				return err
			}
			itemIDs = append(itemIDs, item.ID)

			if item.SerialNumber != nil {
				entry := &repository.LedgerEvent{
					SerialNumber: *item.SerialNumber,
					ItemID:       item.ID,
					BatchID:      batch.ID,
					SKU:          batch.SKU,
					Action:       repository.LedgerActionAssigned,
					ActorID:      act.ID,
					ReferenceID:  sourceRef,
				}
				if err := s.ledger.AppendTx(ctx, tx, entry); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}

	s.publisher.PublishBatchReceived(ctx, messaging.BatchReceivedEvent{
		BatchID:    batch.ID,
		SKU:        batch.SKU,
		Quantity:   batch.TotalQuantity,
		Source:     batch.Source,
		ReceivedBy: act.ID,
	})

	s.logger.Info().
		Str("batch_id", batch.ID).
		Str("sku", batch.SKU).
		Int("quantity", batch.TotalQuantity).
		Int("pre_assigned", len(input.PreAssignedSerials)).
		Msg("batch created")

	return &CreateBatchResult{BatchID: batch.ID, ItemIDs: itemIDs}, nil
}

// GetBatch returns a batch with its items
func (s *InventoryService) GetBatch(ctx context.Context, batchID string) (*repository.Batch, []*repository.Item, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.items.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	return batch, items, nil
}

// ListBatches returns a page of batches
func (s *InventoryService) ListBatches(ctx context.Context, page, perPage int) ([]*repository.Batch, int, error) {
	return s.batches.List(ctx, page, perPage)
}
