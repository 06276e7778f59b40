// Package events publishes order lifecycle events to an external sink.
package events

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeWebhookFailed      Type = "webhook.failed"
)

type Event struct {
	ID          uuid.UUID          `json:"id"`
	Type        Type               `json:"type"`
	OrderID     string             `json:"orderId,omitempty"`
	OrderNumber string             `json:"orderNumber,omitempty"`
	Status      domain.OrderStatus `json:"status,omitempty"`
	Payload     map[string]string  `json:"payload,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// Publisher delivers events. Publish errors are reported to the caller, which
// decides whether they matter; order state never depends on delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// ForOrder builds an event describing the current state of order.
func ForOrder(t Type, order *domain.Order) Event {
	e := Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
	if order != nil {
		e.OrderID = order.ID
		e.OrderNumber = order.OrderNumber
		e.Status = order.Status
	}
	return e
}

// WebhookFailed records a webhook that could not be applied.
func WebhookFailed(referenceID, status string, cause error) Event {
	e := ForOrder(TypeWebhookFailed, nil)
	e.OrderID = referenceID
	e.Payload = map[string]string{"webhookStatus": status}
	if cause != nil {
		e.Payload["error"] = cause.Error()
	}
	return e
}

// key keeps all events of one order on the same partition / routing path.
func (e Event) key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.ID.String()
}
