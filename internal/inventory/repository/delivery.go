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

// Delivery records a single item handed to a recipient
type Delivery struct {
	ID           string    `db:"id" json:"id"`
	ItemID       string    `db:"item_id" json:"item_id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	SKU          string    `db:"sku" json:"sku"`
	SerialNumber string    `db:"serial_number" json:"serial_number"`
	RecipientID  string    `db:"recipient_id" json:"recipient_id"`
	DeliveredBy  string    `db:"delivered_by" json:"delivered_by"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	DeliveredAt  time.Time `db:"delivered_at" json:"delivered_at"`
}

// DeliveryRepository handles delivery records
type DeliveryRepository struct {
	db *database.DB
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *database.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

// CreateTx inserts a delivery record inside the caller's transaction
func (r *DeliveryRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, delivery *Delivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}

	query := `
		INSERT INTO deliveries (id, item_id, batch_id, sku, serial_number, recipient_id, delivered_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING delivered_at
	`

	return tx.QueryRowxContext(ctx, query,
		delivery.ID, delivery.ItemID, delivery.BatchID, delivery.SKU,
		delivery.SerialNumber, delivery.RecipientID, delivery.DeliveredBy, delivery.Notes,
	).Scan(&delivery.DeliveredAt)
}

// GetByID gets a delivery by ID
func (r *DeliveryRepository) GetByID(ctx context.Context, id string) (*Delivery, error) {
	var delivery Delivery
	query := `SELECT * FROM deliveries WHERE id = $1`
	if err := r.db.GetContext(ctx, &delivery, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("delivery")
		}
		return nil, err
	}
	return &delivery, nil
}

// List lists deliveries with pagination, newest first
func (r *DeliveryRepository) List(ctx context.Context, page, perPage int) ([]*Delivery, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM deliveries`); err != nil {
		return nil, 0, err
	}

	var deliveries []*Delivery
	query := `
		SELECT * FROM deliveries
		ORDER BY delivered_at DESC, id
		LIMIT $1 OFFSET $2
	`
	offset := (page - 1) * perPage
	if err := r.db.SelectContext(ctx, &deliveries, query, perPage, offset); err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}
