package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory events
	EventBatchReceived  = "inventory.batch.received"
	EventSerialAssigned = "inventory.serial.assigned"
	EventItemDelivered  = "inventory.item.delivered"
	EventBulkCompleted  = "inventory.bulk.completed"

	// User events (consumed from the identity collaborator)
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeUserEvents      = "user.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Inventory events

// BatchReceivedEvent is published when a batch and its items are created
type BatchReceivedEvent struct {
	BatchID    string `json:"batch_id"`
	SKU        string `json:"sku"`
	Quantity   int    `json:"quantity"`
	Source     string `json:"source"`
	ReceivedBy string `json:"received_by"`
}

// SerialAssignedEvent is published when a serial number is bound to an item
type SerialAssignedEvent struct {
	ItemID       string `json:"item_id"`
	BatchID      string `json:"batch_id"`
	SerialNumber string `json:"serial_number"`
	AssignedBy   string `json:"assigned_by"`
}

// ItemDeliveredEvent is published when an item is allocated to a delivery
type ItemDeliveredEvent struct {
	DeliveryID   string `json:"delivery_id"`
	ItemID       string `json:"item_id"`
	BatchID      string `json:"batch_id"`
	SerialNumber string `json:"serial_number"`
	SKU          string `json:"sku"`
	DeliveredBy  string `json:"delivered_by"`
}

// BulkCompletedEvent is published when a bulk assignment finishes
type BulkCompletedEvent struct {
	OperationID string `json:"operation_id"`
	Successful  int    `json:"successful"`
	Failed      int    `json:"failed"`
	CreatedBy   string `json:"created_by"`
}

// User events (consumed)

// UserCreatedEvent is published by the identity service when a user is created
type UserCreatedEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleName string `json:"role_name"`
}

// UserUpdatedEvent is published by the identity service when a user is updated
type UserUpdatedEvent struct {
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"` // Changed fields
}

// UserDeletedEvent is published by the identity service when a user is deleted
type UserDeletedEvent struct {
	UserID string `json:"user_id"`
}
