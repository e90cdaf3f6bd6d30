package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// Batch sources
const (
	BatchSourceNewArrival = "NEW_ARRIVAL"
	BatchSourceFromReturn = "FROM_RETURN"
)

// Batch is the aggregate record for one receipt event of a SKU.
// Its quantity counters are only ever mutated inside the same transaction
// as the item state change that motivated the update.
type Batch struct {
	ID                string    `db:"id" json:"id"`
	SKU               string    `db:"sku" json:"sku"`
	ProductName       string    `db:"product_name" json:"product_name"`
	TotalQuantity     int       `db:"total_quantity" json:"total_quantity"`
	AvailableQuantity int       `db:"available_quantity" json:"available_quantity"`
	ReservedQuantity  int       `db:"reserved_quantity" json:"reserved_quantity"`
	DeliveredQuantity int       `db:"delivered_quantity" json:"delivered_quantity"`
	ReturnedQuantity  int       `db:"returned_quantity" json:"returned_quantity"`
	Source            string    `db:"source" json:"source"`
	SourceReference   *string   `db:"source_reference" json:"source_reference,omitempty"`
	ReceivedDate      time.Time `db:"received_date" json:"received_date"`
	ReceivedBy        string    `db:"received_by" json:"received_by"`
	SerialsAssigned   int       `db:"serials_assigned" json:"serials_assigned"`
	SerialsUnassigned int       `db:"serials_unassigned" json:"serials_unassigned"`
	BatchNotes        *string   `db:"batch_notes" json:"batch_notes,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// CreateTx inserts a new batch inside the caller's transaction
func (r *BatchRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.ReceivedDate.IsZero() {
		batch.ReceivedDate = time.Now().UTC()
	}

	query := `
		INSERT INTO batches (
			id, sku, product_name, total_quantity, available_quantity, reserved_quantity,
			delivered_quantity, returned_quantity, source, source_reference, received_date,
			received_by, serials_assigned, serials_unassigned, batch_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	return tx.QueryRowxContext(ctx, query,
		batch.ID, batch.SKU, batch.ProductName, batch.TotalQuantity, batch.AvailableQuantity,
		batch.ReservedQuantity, batch.DeliveredQuantity, batch.ReturnedQuantity, batch.Source,
		batch.SourceReference, batch.ReceivedDate, batch.ReceivedBy,
		batch.SerialsAssigned, batch.SerialsUnassigned, batch.BatchNotes,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// GetTx loads a batch inside the caller's transaction, taking a row lock so
// counter updates later in the same transaction cannot race another writer.
func (r *BatchRepository) GetTx(ctx context.Context, tx *sqlx.Tx, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// List lists batches, newest receipt first
func (r *BatchRepository) List(ctx context.Context, page, perPage int) ([]*Batch, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM batches`); err != nil {
		return nil, 0, err
	}

	var batches []*Batch
	query := `
		SELECT * FROM batches
		ORDER BY received_date DESC, id
		LIMIT $1 OFFSET $2
	`
	offset := (page - 1) * perPage
	if err := r.db.SelectContext(ctx, &batches, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// ListAll lists every batch ordered by SKU then receipt date.
// Used by the aggregation layer; reads a plain snapshot.
func (r *BatchRepository) ListAll(ctx context.Context) ([]*Batch, error) {
	var batches []*Batch
	query := `SELECT * FROM batches ORDER BY sku, received_date, id`
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, err
	}
	return batches, nil
}

// ApplySerialAssignedTx moves one unit from the unassigned to the assigned
// serial counter. The conditional update keeps the counters from going
// negative if the caller's bookkeeping is ever wrong.
func (r *BatchRepository) ApplySerialAssignedTx(ctx context.Context, tx *sqlx.Tx, batchID string) error {
	query := `
		UPDATE batches SET
			serials_assigned = serials_assigned + 1,
			serials_unassigned = serials_unassigned - 1,
			updated_at = NOW()
		WHERE id = $1 AND serials_unassigned >= 1
	`
	result, err := tx.ExecContext(ctx, query, batchID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Internal("batch serial counters are out of sync")
	}
	return nil
}

// ApplyDeliveredTx moves one unit from available to delivered.
func (r *BatchRepository) ApplyDeliveredTx(ctx context.Context, tx *sqlx.Tx, batchID string) error {
	query := `
		UPDATE batches SET
			available_quantity = available_quantity - 1,
			delivered_quantity = delivered_quantity + 1,
			updated_at = NOW()
		WHERE id = $1 AND available_quantity >= 1
	`
	result, err := tx.ExecContext(ctx, query, batchID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Internal("batch quantity counters are out of sync")
	}
	return nil
}

// CountBySource counts batches per source classification
func (r *BatchRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT source, COUNT(*) FROM batches GROUP BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] = count
	}
	return counts, rows.Err()
}
