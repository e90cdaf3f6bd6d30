package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InventorySchema is the full inventory schema. The CHECK constraints keep
// the batch counter invariants enforced at commit time, and the partial
// unique index is the commit-time authority for serial number uniqueness.
const InventorySchema = `
	CREATE TABLE IF NOT EXISTS batches (
		id UUID PRIMARY KEY,
		sku VARCHAR(64) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		total_quantity INTEGER NOT NULL,
		available_quantity INTEGER NOT NULL DEFAULT 0,
		reserved_quantity INTEGER NOT NULL DEFAULT 0,
		delivered_quantity INTEGER NOT NULL DEFAULT 0,
		returned_quantity INTEGER NOT NULL DEFAULT 0,
		source VARCHAR(20) NOT NULL,
		source_reference UUID,
		received_date TIMESTAMPTZ NOT NULL,
		received_by UUID NOT NULL,
		serials_assigned INTEGER NOT NULL DEFAULT 0,
		serials_unassigned INTEGER NOT NULL DEFAULT 0,
		batch_notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT batches_quantity_positive CHECK (total_quantity > 0),
		CONSTRAINT batches_quantity_conservation CHECK (
			total_quantity = available_quantity + reserved_quantity
				+ delivered_quantity + returned_quantity
		),
		CONSTRAINT batches_serial_counts CHECK (
			serials_assigned + serials_unassigned = total_quantity
		),
		CONSTRAINT batches_source_valid CHECK (source IN ('NEW_ARRIVAL', 'FROM_RETURN'))
	);

	CREATE INDEX IF NOT EXISTS idx_batches_sku ON batches(sku);

	CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY,
		batch_id UUID NOT NULL REFERENCES batches(id),
		serial_number VARCHAR(128),
		status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
		assigned_date TIMESTAMPTZ,
		assigned_by UUID,
		delivery_id UUID,
		return_id UUID,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT items_status_valid CHECK (
			status IN ('AVAILABLE', 'RESERVED', 'DELIVERED', 'RETURNED')
		)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS items_serial_number_key
		ON items(serial_number) WHERE serial_number IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_items_batch_status ON items(batch_id, status);

	CREATE TABLE IF NOT EXISTS serial_ledger (
		id UUID PRIMARY KEY,
		seq BIGSERIAL NOT NULL,
		serial_number VARCHAR(128) NOT NULL,
		item_id UUID NOT NULL,
		batch_id UUID NOT NULL,
		sku VARCHAR(64) NOT NULL,
		action VARCHAR(20) NOT NULL,
		actor_id UUID NOT NULL,
		reference_id UUID,
		notes TEXT,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT serial_ledger_action_valid CHECK (
			action IN ('assigned', 'delivered', 'returned')
		)
	);

	CREATE INDEX IF NOT EXISTS idx_serial_ledger_serial ON serial_ledger(serial_number);

	CREATE TABLE IF NOT EXISTS bulk_operations (
		id UUID PRIMARY KEY,
		batch_id UUID NOT NULL REFERENCES batches(id),
		status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
		item_ids UUID[] NOT NULL,
		total_count INTEGER NOT NULL DEFAULT 0,
		success_count INTEGER NOT NULL DEFAULT 0,
		failure_count INTEGER NOT NULL DEFAULT 0,
		errors TEXT[] NOT NULL DEFAULT '{}',
		performed_by UUID NOT NULL,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		CONSTRAINT bulk_operations_status_valid CHECK (
			status IN ('in_progress', 'completed')
		)
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		id UUID PRIMARY KEY,
		item_id UUID NOT NULL REFERENCES items(id),
		batch_id UUID NOT NULL REFERENCES batches(id),
		sku VARCHAR(64) NOT NULL,
		serial_number VARCHAR(128) NOT NULL,
		recipient_id UUID NOT NULL,
		delivered_by UUID NOT NULL,
		notes TEXT,
		delivered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS user_cache (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		role_name VARCHAR(100) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// ApplySchema creates the inventory schema in the given database
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, InventorySchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// TruncateAll empties every inventory table. Used between tests to keep
// them independent without rebuilding the schema.
func TruncateAll(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE deliveries, bulk_operations, serial_ledger, items, batches, user_cache CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
