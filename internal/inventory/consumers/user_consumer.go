package consumers

import (
	"context"

	"github.com/stocktrace/stocktrace-backend/internal/inventory/repository"
	"github.com/stocktrace/stocktrace-backend/pkg/logger"
	"github.com/stocktrace/stocktrace-backend/pkg/messaging"
)

// UserConsumer keeps the local user cache in sync with the identity service
type UserConsumer struct {
	consumer *messaging.Consumer
	users    *repository.UserCacheRepository
	logger   *logger.Logger
}

// NewUserConsumer creates a consumer bound to the user events exchange
func NewUserConsumer(rmq *messaging.RabbitMQ, users *repository.UserCacheRepository, log *logger.Logger) (*UserConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "inventory-service.user-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeUserEvents, "user.*"); err != nil {
		return nil, err
	}

	uc := &UserConsumer{
		consumer: consumer,
		users:    users,
		logger:   log.WithComponent("user_consumer"),
	}

	consumer.RegisterHandler(messaging.EventUserCreated, uc.handleUserCreated)
	consumer.RegisterHandler(messaging.EventUserUpdated, uc.handleUserUpdated)
	consumer.RegisterHandler(messaging.EventUserDeleted, uc.handleUserDeleted)

	return uc, nil
}

// Start begins consuming user events
func (c *UserConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *UserConsumer) handleUserCreated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserCreatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	return c.users.Set(ctx, &repository.CachedUser{
		ID:       data.UserID,
		Email:    data.Email,
		Name:     data.Name,
		RoleName: data.RoleName,
	})
}

func (c *UserConsumer) handleUserUpdated(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserUpdatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	user, err := c.users.Get(ctx, data.UserID)
	if err != nil {
		c.logger.Warn().Str("user_id", data.UserID).Msg("update event for unknown user, skipping")
		return nil
	}

	if v, ok := data.Fields["email"].(string); ok {
		user.Email = v
	}
	if v, ok := data.Fields["name"].(string); ok {
		user.Name = v
	}
	if v, ok := data.Fields["role_name"].(string); ok {
		user.RoleName = v
	}

	return c.users.Set(ctx, user)
}

func (c *UserConsumer) handleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}
	return c.users.Delete(ctx, data.UserID)
}
