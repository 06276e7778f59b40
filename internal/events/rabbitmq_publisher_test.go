package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": "test",
				"RABBITMQ_DEFAULT_PASS": "test",
			},
			WaitingFor: wait.ForLog("Server startup complete").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate rabbitmq container: %v", err)
		}
	}

	return fmt.Sprintf("amqp://test:test@%s:%d/", host, port.Int()), cleanup
}

func TestRabbitPublisher_Publish(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	url, cleanup := setupRabbitMQ(t)
	defer cleanup()

	p, err := NewRabbitPublisher(url, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "order.#", ExchangeName, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	order := &domain.Order{ID: "order-7", OrderNumber: "ORD-7-WXYZ", Status: domain.OrderStatusCompleted}
	sent := ForOrder(TypeOrderStatusChanged, order)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Publish(ctx, sent))

	select {
	case d := <-deliveries:
		assert.Equal(t, "order.status_changed", d.RoutingKey)
		assert.Equal(t, "application/json", d.ContentType)

		var got Event
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, domain.OrderStatusCompleted, got.Status)
	case <-ctx.Done():
		t.Fatal("no delivery received")
	}
}
