package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"go.uber.org/zap"
)

type WebhookEvent struct {
	ReferenceID   string `json:"reference_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (e WebhookEvent) succeeded() bool {
	switch strings.ToLower(strings.TrimSpace(e.Status)) {
	case "completed", "success":
		return true
	}
	return false
}

// HandleWebhook applies a Payflowly status callback. Successful payments complete
// the referenced order; any other status leaves it untouched. Failures are
// logged and published as webhook.failed, and also returned so the caller can
// decide how to acknowledge.
func (s *OrderService) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	logger := s.logger.With(
		zap.String("reference_id", event.ReferenceID),
		zap.String("webhook_status", event.Status),
		zap.String("transaction_id", event.TransactionID))

	if !event.succeeded() {
		logger.Info("webhook ignored")
		return nil
	}

	err := s.completeFromWebhook(ctx, event)
	if err != nil {
		s.webhookFailed(ctx, logger, event, err)
		return err
	}
	logger.Info("webhook applied")
	return nil
}

// RejectWebhook reports a callback that could not be read at all.
func (s *OrderService) RejectWebhook(ctx context.Context, cause error) {
	s.webhookFailed(ctx, s.logger, WebhookEvent{}, cause)
}

func (s *OrderService) webhookFailed(ctx context.Context, logger *zap.Logger, event WebhookEvent, err error) {
	logger.Error("webhook failed", zap.String("event", "webhook_failed"), zap.Error(err))
	s.publish(ctx, events.WebhookFailed(event.ReferenceID, event.Status, err))
}

func (s *OrderService) completeFromWebhook(ctx context.Context, event WebhookEvent) error {
	if event.ReferenceID == "" {
		return fmt.Errorf("%w: reference_id is required", domain.ErrValidation)
	}

	order, err := s.setStatus(ctx, event.ReferenceID, domain.OrderStatusCompleted)
	if err != nil {
		return fmt.Errorf("complete order: %w", err)
	}

	if event.TransactionID != "" && order.PaymentReference != event.TransactionID {
		if err := s.repo.SetPaymentReference(ctx, order.ID, event.TransactionID); err != nil {
			return fmt.Errorf("store transaction id: %w", err)
		}
	}
	return nil
}
