package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// Item statuses. Status only ever moves forward: AVAILABLE -> RESERVED ->
// DELIVERED. RETURNED marks units that entered the store through a return;
// a delivered or returned item is never reset to AVAILABLE.
const (
	ItemStatusAvailable = "AVAILABLE"
	ItemStatusReserved  = "RESERVED"
	ItemStatusDelivered = "DELIVERED"
	ItemStatusReturned  = "RETURNED"
)

// Item represents one physical unit belonging to a batch
type Item struct {
	ID           string     `db:"id" json:"id"`
	BatchID      string     `db:"batch_id" json:"batch_id"`
	SerialNumber *string    `db:"serial_number" json:"serial_number,omitempty"`
	Status       string     `db:"status" json:"status"`
	AssignedDate *time.Time `db:"assigned_date" json:"assigned_date,omitempty"`
	AssignedBy   *string    `db:"assigned_by" json:"assigned_by,omitempty"`
	DeliveryID   *string    `db:"delivery_id" json:"delivery_id,omitempty"`
	ReturnID     *string    `db:"return_id" json:"return_id,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// ItemRepository handles item persistence
type ItemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// InsertTx inserts a new item inside the caller's transaction
func (r *ItemRepository) InsertTx(ctx context.Context, tx *sqlx.Tx, item *Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO items (
			id, batch_id, serial_number, status, assigned_date, assigned_by,
			delivery_id, return_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	return tx.QueryRowxContext(ctx, query,
		item.ID, item.BatchID, item.SerialNumber, item.Status, item.AssignedDate,
		item.AssignedBy, item.DeliveryID, item.ReturnID, item.Notes,
	).Scan(&item.CreatedAt)
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// GetTx loads an item inside the caller's transaction with a row lock
func (r *ItemRepository) GetTx(ctx context.Context, tx *sqlx.Tx, id string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// GetBySerial looks up the item carrying the given serial number
func (r *ItemRepository) GetBySerial(ctx context.Context, serial string) (*Item, error) {
	var item Item
	query := `SELECT * FROM items WHERE serial_number = $1`
	if err := r.db.GetContext(ctx, &item, query, serial); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("serial number")
		}
		return nil, err
	}
	return &item, nil
}

// ExistingSerialsTx returns which of the given serial numbers are already
// bound to an item. Runs inside the caller's transaction so the result is
// re-validated at commit time by the unique index.
func (r *ItemRepository) ExistingSerialsTx(ctx context.Context, tx *sqlx.Tx, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}

	var existing []string
	query := `SELECT serial_number FROM items WHERE serial_number = ANY($1)`
	if err := tx.SelectContext(ctx, &existing, query, pq.Array(serials)); err != nil {
		return nil, err
	}
	return existing, nil
}

// BindSerialTx binds a serial number to an item that does not have one yet.
// The WHERE guard makes a concurrent double-assignment impossible even if the
// caller's earlier read was stale.
func (r *ItemRepository) BindSerialTx(ctx context.Context, tx *sqlx.Tx, itemID, serial, assignedBy string, assignedAt time.Time) error {
	query := `
		UPDATE items SET
			serial_number = $2,
			assigned_date = $3,
			assigned_by = $4
		WHERE id = $1 AND serial_number IS NULL
	`
	result, err := tx.ExecContext(ctx, query, itemID, serial, assignedAt, assignedBy)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.AlreadyAssigned(itemID)
	}
	return nil
}

// MarkDeliveredTx transitions an item to DELIVERED and stamps its delivery
func (r *ItemRepository) MarkDeliveredTx(ctx context.Context, tx *sqlx.Tx, itemID, deliveryID string) error {
	query := `
		UPDATE items SET
			status = $2,
			delivery_id = $3
		WHERE id = $1 AND status <> $2
	`
	result, err := tx.ExecContext(ctx, query, itemID, ItemStatusDelivered, deliveryID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("item is already delivered")
	}
	return nil
}

// OldestAvailableBySKUTx picks the oldest AVAILABLE item for a SKU, FIFO by
// creation order, locking the row for the rest of the transaction.
func (r *ItemRepository) OldestAvailableBySKUTx(ctx context.Context, tx *sqlx.Tx, sku string) (*Item, error) {
	var item Item
	query := `
		SELECT i.* FROM items i
		JOIN batches b ON b.id = i.batch_id
		WHERE b.sku = $1 AND i.status = $2
		ORDER BY i.created_at, i.id
		LIMIT 1
		FOR UPDATE OF i
	`
	if err := tx.GetContext(ctx, &item, query, sku, ItemStatusAvailable); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.InsufficientStock(sku)
		}
		return nil, err
	}
	return &item, nil
}

// OldestAvailableInBatchTx picks the oldest AVAILABLE item of one batch
func (r *ItemRepository) OldestAvailableInBatchTx(ctx context.Context, tx *sqlx.Tx, batchID string) (*Item, error) {
	var item Item
	query := `
		SELECT * FROM items
		WHERE batch_id = $1 AND status = $2
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE
	`
	if err := tx.GetContext(ctx, &item, query, batchID, ItemStatusAvailable); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.InsufficientStock(batchID)
		}
		return nil, err
	}
	return &item, nil
}

// ListAvailableBySKU lists AVAILABLE items for a SKU in FIFO order
func (r *ItemRepository) ListAvailableBySKU(ctx context.Context, sku string) ([]*Item, error) {
	var items []*Item
	query := `
		SELECT i.* FROM items i
		JOIN batches b ON b.id = i.batch_id
		WHERE b.sku = $1 AND i.status = $2
		ORDER BY i.created_at, i.id
	`
	if err := r.db.SelectContext(ctx, &items, query, sku, ItemStatusAvailable); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByBatch lists all items of a batch in creation order
func (r *ItemRepository) ListByBatch(ctx context.Context, batchID string) ([]*Item, error) {
	var items []*Item
	query := `SELECT * FROM items WHERE batch_id = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &items, query, batchID); err != nil {
		return nil, err
	}
	return items, nil
}

// CountByStatus counts items grouped by status
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM items GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountSerials returns how many items carry a serial number and how many do not
func (r *ItemRepository) CountSerials(ctx context.Context) (withSerial, withoutSerial int64, err error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE serial_number IS NOT NULL),
			COUNT(*) FILTER (WHERE serial_number IS NULL)
		FROM items
	`
	err = r.db.QueryRowxContext(ctx, query).Scan(&withSerial, &withoutSerial)
	return withSerial, withoutSerial, err
}
