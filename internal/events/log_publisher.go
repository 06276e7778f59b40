package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the structured log. It is the default sink when
// no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", string(event.Type)),
		zap.String("order_id", event.OrderID),
		zap.String("order_number", event.OrderNumber),
		zap.String("status", string(event.Status)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if len(event.Payload) > 0 {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	p.logger.Info("domain event", fields...)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
