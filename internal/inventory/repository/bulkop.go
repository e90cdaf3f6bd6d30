package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// Bulk operation statuses
const (
	BulkStatusInProgress = "in_progress"
	BulkStatusCompleted  = "completed"
)

// BulkOperation records one bulk serial assignment run. ItemIDs holds the
// targets submitted for the run; Errors holds one message per failed pair.
type BulkOperation struct {
	ID           string         `db:"id" json:"id"`
	BatchID      string         `db:"batch_id" json:"batch_id"`
	Status       string         `db:"status" json:"status"`
	ItemIDs      pq.StringArray `db:"item_ids" json:"item_ids"`
	TotalCount   int            `db:"total_count" json:"total_count"`
	SuccessCount int            `db:"success_count" json:"success_count"`
	FailureCount int            `db:"failure_count" json:"failure_count"`
	Errors       pq.StringArray `db:"errors" json:"errors"`
	PerformedBy  string         `db:"performed_by" json:"performed_by"`
	StartedAt    time.Time      `db:"started_at" json:"started_at"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// BulkOperationRepository handles bulk operation envelopes
type BulkOperationRepository struct {
	db *database.DB
}

// NewBulkOperationRepository creates a new bulk operation repository
func NewBulkOperationRepository(db *database.DB) *BulkOperationRepository {
	return &BulkOperationRepository{db: db}
}

// Create inserts a new in-progress bulk operation envelope
func (r *BulkOperationRepository) Create(ctx context.Context, op *BulkOperation) error {
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	op.Status = BulkStatusInProgress
	op.TotalCount = len(op.ItemIDs)

	query := `
		INSERT INTO bulk_operations (id, batch_id, status, item_ids, total_count, performed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING started_at
	`

	return r.db.QueryRowxContext(ctx, query,
		op.ID, op.BatchID, op.Status, op.ItemIDs, op.TotalCount, op.PerformedBy,
	).Scan(&op.StartedAt)
}

// Finalize records the aggregate outcome of a bulk operation. The status
// guard makes finalization exactly-once; a second call is a conflict.
func (r *BulkOperationRepository) Finalize(ctx context.Context, id string, successCount, failureCount int, opErrors []string) error {
	query := `
		UPDATE bulk_operations SET
			status = $2,
			success_count = $3,
			failure_count = $4,
			errors = $5,
			completed_at = NOW()
		WHERE id = $1 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		id, BulkStatusCompleted, successCount, failureCount,
		pq.StringArray(opErrors), BulkStatusInProgress,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("bulk operation is already finalized")
	}
	return nil
}

// GetByID gets a bulk operation by ID
func (r *BulkOperationRepository) GetByID(ctx context.Context, id string) (*BulkOperation, error) {
	var op BulkOperation
	query := `SELECT * FROM bulk_operations WHERE id = $1`
	if err := r.db.GetContext(ctx, &op, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("bulk operation")
		}
		return nil, err
	}
	return &op, nil
}

// ListByBatch lists bulk operations of a batch, newest first
func (r *BulkOperationRepository) ListByBatch(ctx context.Context, batchID string) ([]*BulkOperation, error) {
	var ops []*BulkOperation
	query := `SELECT * FROM bulk_operations WHERE batch_id = $1 ORDER BY started_at DESC`
	if err := r.db.SelectContext(ctx, &ops, query, batchID); err != nil {
		return nil, err
	}
	return ops, nil
}
