package events

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisher_Publish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	order := &domain.Order{ID: "order-1", OrderNumber: "ORD-1-ABCD", Status: domain.OrderStatusCompleted}
	require.NoError(t, p.Publish(context.Background(), ForOrder(TypeOrderStatusChanged, order)))

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "order.status_changed", fields["event_type"])
	assert.Equal(t, "order-1", fields["order_id"])
	assert.Equal(t, "ORD-1-ABCD", fields["order_number"])
	assert.Equal(t, "completed", fields["status"])
	assert.NoError(t, p.Close())
}

func TestWebhookFailed(t *testing.T) {
	e := WebhookFailed("order-9", "completed", errors.New("boom"))

	assert.Equal(t, TypeWebhookFailed, e.Type)
	assert.Equal(t, "order-9", e.OrderID)
	assert.Equal(t, "completed", e.Payload["webhookStatus"])
	assert.Equal(t, "boom", e.Payload["error"])
	assert.Equal(t, "order-9", e.key())
}

func TestForOrder_NilOrderKeyedByEventID(t *testing.T) {
	e := ForOrder(TypeOrderCreated, nil)

	assert.Empty(t, e.OrderID)
	assert.Equal(t, e.ID.String(), e.key())
	assert.False(t, e.OccurredAt.IsZero())
}
