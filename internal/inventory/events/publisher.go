package events

import (
	"context"

	"github.com/stocktrace/stocktrace-backend/pkg/logger"
	"github.com/stocktrace/stocktrace-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory domain events. A nil publisher
// is valid and drops everything, so the service keeps working when RabbitMQ
// is not configured.
type InventoryEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(publisher *messaging.Publisher, log *logger.Logger) *InventoryEventPublisher {
	if publisher == nil {
		return nil
	}
	return &InventoryEventPublisher{publisher: publisher, logger: log}
}

func (p *InventoryEventPublisher) publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil {
		return
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.WithError(err).Error().Str("event_type", eventType).Msg("Failed to publish event")
	}
}

// PublishBatchReceived publishes inventory.batch.received
func (p *InventoryEventPublisher) PublishBatchReceived(ctx context.Context, data messaging.BatchReceivedEvent) {
	p.publish(ctx, messaging.EventBatchReceived, data)
}

// PublishSerialAssigned publishes inventory.serial.assigned
func (p *InventoryEventPublisher) PublishSerialAssigned(ctx context.Context, data messaging.SerialAssignedEvent) {
	p.publish(ctx, messaging.EventSerialAssigned, data)
}

// PublishItemDelivered publishes inventory.item.delivered
func (p *InventoryEventPublisher) PublishItemDelivered(ctx context.Context, data messaging.ItemDeliveredEvent) {
	p.publish(ctx, messaging.EventItemDelivered, data)
}

// PublishBulkCompleted publishes inventory.bulk.completed
func (p *InventoryEventPublisher) PublishBulkCompleted(ctx context.Context, data messaging.BulkCompletedEvent) {
	p.publish(ctx, messaging.EventBulkCompleted, data)
}
