package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/events"
	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/config"
	"github.com/stocktrace/stocktrace-backend/pkg/database"
	"github.com/stocktrace/stocktrace-backend/pkg/logger"
)

// InventoryService implements the allocation engine. All mutating operations
// run in serializable transactions so concurrent allocations either commit a
// consistent state or fail with a conflict and get retried.
type InventoryService struct {
	db         *database.DB
	batches    *repository.BatchRepository
	items      *repository.ItemRepository
	ledger     *repository.LedgerRepository
	bulkOps    *repository.BulkOperationRepository
	deliveries *repository.DeliveryRepository
	publisher  *events.InventoryEventPublisher
	logger     *logger.Logger
	engine     config.EngineConfig
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	db *database.DB,
	batches *repository.BatchRepository,
	items *repository.ItemRepository,
	ledger *repository.LedgerRepository,
	bulkOps *repository.BulkOperationRepository,
	deliveries *repository.DeliveryRepository,
	publisher *events.InventoryEventPublisher,
	log *logger.Logger,
	engine config.EngineConfig,
) *InventoryService {
	return &InventoryService{
		db:         db,
		batches:    batches,
		items:      items,
		ledger:     ledger,
		bulkOps:    bulkOps,
		deliveries: deliveries,
		publisher:  publisher,
		logger:     log,
		engine:     engine,
	}
}

// serializable runs fn in a serializable transaction with the configured
// retry policy.
func (s *InventoryService) serializable(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return s.db.Serializable(ctx, s.engine.TxMaxRetries, s.engine.TxRetryBackoff, fn)
}
