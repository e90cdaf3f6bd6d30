package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
)

// Ledger actions. The ledger is append-only; rows are never updated or
// deleted once written.
const (
	LedgerActionAssigned  = "assigned"
	LedgerActionDelivered = "delivered"
	LedgerActionReturned  = "returned"
)

// LedgerEvent is one append-only history row for a serial number.
// Seq is the insertion order; occurred_at alone cannot order events
// written inside the same transaction.
type LedgerEvent struct {
	ID           string    `db:"id" json:"id"`
	Seq          int64     `db:"seq" json:"-"`
	SerialNumber string    `db:"serial_number" json:"serial_number"`
	ItemID       string    `db:"item_id" json:"item_id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	SKU          string    `db:"sku" json:"sku"`
	Action       string    `db:"action" json:"action"`
	ActorID      string    `db:"actor_id" json:"actor_id"`
	ReferenceID  *string   `db:"reference_id" json:"reference_id,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurred_at"`
}

// LedgerRepository handles the serial number ledger
type LedgerRepository struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AppendTx appends a ledger event inside the caller's transaction
func (r *LedgerRepository) AppendTx(ctx context.Context, tx *sqlx.Tx, event *LedgerEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
		INSERT INTO serial_ledger (
			id, serial_number, item_id, batch_id, sku, action, actor_id,
			reference_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq, occurred_at
	`

	return tx.QueryRowxContext(ctx, query,
		event.ID, event.SerialNumber, event.ItemID, event.BatchID, event.SKU,
		event.Action, event.ActorID, event.ReferenceID, event.Notes,
	).Scan(&event.Seq, &event.OccurredAt)
}

// ListBySerial lists the full history of a serial number, oldest first
func (r *LedgerRepository) ListBySerial(ctx context.Context, serial string) ([]*LedgerEvent, error) {
	var events []*LedgerEvent
	query := `
		SELECT * FROM serial_ledger
		WHERE serial_number = $1
		ORDER BY seq
	`
	if err := r.db.SelectContext(ctx, &events, query, serial); err != nil {
		return nil, err
	}
	return events, nil
}

// ListReturnsBySerial lists only the return events of a serial number
func (r *LedgerRepository) ListReturnsBySerial(ctx context.Context, serial string) ([]*LedgerEvent, error) {
	var events []*LedgerEvent
	query := `
		SELECT * FROM serial_ledger
		WHERE serial_number = $1 AND action = $2
		ORDER BY seq
	`
	if err := r.db.SelectContext(ctx, &events, query, serial, LedgerActionReturned); err != nil {
		return nil, err
	}
	return events, nil
}
