package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName = "storefront.orders"
	ExchangeType = "topic"

	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitPublisher dials url, retrying while the broker starts up, and
// declares the durable topic exchange. Routing keys are event types.
func NewRabbitPublisher(url string, logger *zap.Logger) (*RabbitPublisher, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		logger.Warn("failed to connect to rabbitmq", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(dialBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("could not connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,       // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
}

func (p *RabbitPublisher) Close() error {
	return errors.Join(p.ch.Close(), p.conn.Close())
}
