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

// DeliverInput is the input for Deliver. Exactly one of SelectedItemID,
// BatchID or SKU picks the target; SelectedItemID takes an explicit item,
// the other two allocate the oldest available item FIFO.
type DeliverInput struct {
	SelectedItemID *string `json:"selected_item_id,omitempty" validate:"omitempty,uuid"`
	BatchID        *string `json:"batch_id,omitempty" validate:"omitempty,uuid"`
	SKU            *string `json:"sku,omitempty" validate:"omitempty,min=1,max=64"`
	SerialNumber   *string `json:"serial_number,omitempty" validate:"omitempty,min=1,max=128"`
	RecipientID    string  `json:"recipient_id" validate:"required,uuid"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// DeliverResult describes the committed delivery
type DeliverResult struct {
	DeliveryID   string    `json:"delivery_id"`
	ItemID       string    `json:"item_id"`
	BatchID      string    `json:"batch_id"`
	SKU          string    `json:"sku"`
	ProductName  string    `json:"product_name"`
	SerialNumber string    `json:"serial_number"`
	DeliveredBy  string    `json:"delivered_by"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

// Deliver allocates one item to a recipient. Target resolution, optional
// delivery-time serial binding, the status transition, the delivery record,
// the batch counter update and the ledger entry all commit as one
// transaction; any failure aborts the whole allocation.
func (s *InventoryService) Deliver(ctx context.Context, input *DeliverInput, act *actor.Actor) (*DeliverResult, error) {
	if input.SelectedItemID == nil && input.BatchID == nil && input.SKU == nil {
		return nil, errors.Validation(map[string]string{
			"target": "must name an item, a batch or a sku",
		})
	}

	var result *DeliverResult

	err := s.serializable(ctx, func(tx *sqlx.Tx) error {
		item, err := s.resolveDeliveryTarget(ctx, tx, input)
		if err != nil {
			return err
		}

		batch, err := s.batches.GetTx(ctx, tx, item.BatchID)
		if err != nil {
			return err
		}

		serial := item.SerialNumber
		if serial == nil && input.SerialNumber != nil {
			existing, err := s.items.ExistingSerialsTx(ctx, tx, []string{*input.SerialNumber})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return errors.DuplicateSerialNumber(*input.SerialNumber)
			}
			now := time.Now().UTC()
			if err := s.items.BindSerialTx(ctx, tx, item.ID, *input.SerialNumber, act.ID, now); err != nil {
				return err
			}
			if err := s.batches.ApplySerialAssignedTx(ctx, tx, batch.ID); err != nil {
				return err
			}
			serial = input.SerialNumber

			entry := &repository.LedgerEvent{
				SerialNumber: *serial,
				ItemID:       item.ID,
				BatchID:      batch.ID,
				SKU:          batch.SKU,
				Action:       repository.LedgerActionAssigned,
				ActorID:      act.ID,
			}
			if err := s.ledger.AppendTx(ctx, tx, entry); err != nil {
				return err
			}
		}
		if serial == nil {
			return errors.Validation(map[string]string{
				"serial_number": "item has no serial number and none was supplied",
			})
		}

		delivery := &repository.Delivery{
			ItemID:       item.ID,
			BatchID:      batch.ID,
			SKU:          batch.SKU,
			SerialNumber: *serial,
			RecipientID:  input.RecipientID,
			DeliveredBy:  act.ID,
			Notes:        input.Notes,
		}
		if err := s.deliveries.CreateTx(ctx, tx, delivery); err != nil {
			return err
		}

		if err := s.items.MarkDeliveredTx(ctx, tx, item.ID, delivery.ID); err != nil {
			return err
		}
		if err := s.batches.ApplyDeliveredTx(ctx, tx, batch.ID); err != nil {
			return err
		}

		entry := &repository.LedgerEvent{
			SerialNumber: *serial,
			ItemID:       item.ID,
			BatchID:      batch.ID,
			SKU:          batch.SKU,
			Action:       repository.LedgerActionDelivered,
			ActorID:      act.ID,
			ReferenceID:  &delivery.ID,
			Notes:        input.Notes,
		}
		if err := s.ledger.AppendTx(ctx, tx, entry); err != nil {
			return err
		}

		result = &DeliverResult{
			DeliveryID:   delivery.ID,
			ItemID:       item.ID,
			BatchID:      batch.ID,
			SKU:          batch.SKU,
			ProductName:  batch.ProductName,
			SerialNumber: *serial,
			DeliveredBy:  act.ID,
			DeliveredAt:  delivery.DeliveredAt,
		}
		return nil
	})
	if err != nil {
		if mapped := database.MapPQError(err); mapped != nil {
			return nil, mapped
		}
		return nil, err
	}

	s.publisher.PublishItemDelivered(ctx, messaging.ItemDeliveredEvent{
		DeliveryID:   result.DeliveryID,
		ItemID:       result.ItemID,
		BatchID:      result.BatchID,
		SerialNumber: result.SerialNumber,
		SKU:          result.SKU,
		DeliveredBy:  act.ID,
	})

	s.logger.Info().
		Str("delivery_id", result.DeliveryID).
		Str("item_id", result.ItemID).
		Str("serial_number", result.SerialNumber).
		Msg("item delivered")

	return result, nil
}

// resolveDeliveryTarget locks the item the delivery will consume. An
// explicitly selected item may be AVAILABLE or RETURNED; a delivered item is
// never a valid target. FIFO picks consider AVAILABLE items only.
func (s *InventoryService) resolveDeliveryTarget(ctx context.Context, tx *sqlx.Tx, input *DeliverInput) (*repository.Item, error) {
	switch {
	case input.SelectedItemID != nil:
		item, err := s.items.GetTx(ctx, tx, *input.SelectedItemID)
		if err != nil {
			return nil, err
		}
		if item.Status == repository.ItemStatusDelivered {
			return nil, errors.Conflict("item is already delivered")
		}
		return item, nil
	case input.BatchID != nil:
		return s.items.OldestAvailableInBatchTx(ctx, tx, *input.BatchID)
	default:
		return s.items.OldestAvailableBySKUTx(ctx, tx, *input.SKU)
	}
}

// GetAvailableItems lists AVAILABLE items for a SKU in FIFO order
func (s *InventoryService) GetAvailableItems(ctx context.Context, sku string) ([]*repository.Item, error) {
	items, err := s.items.ListAvailableBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*repository.Item{}
	}
	return items, nil
}

// GetDelivery returns one delivery record
func (s *InventoryService) GetDelivery(ctx context.Context, id string) (*repository.Delivery, error) {
	return s.deliveries.GetByID(ctx, id)
}

// ListDeliveries returns a page of delivery records, newest first
func (s *InventoryService) ListDeliveries(ctx context.Context, page, perPage int) ([]*repository.Delivery, int, error) {
	return s.deliveries.List(ctx, page, perPage)
}
