// Package service holds the order and payment use cases served by the HTTP API.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type IntentGateway interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, orderID string) (*payment.Intent, error)
}

type LinkGateway interface {
	CreateLink(ctx context.Context, req payment.LinkRequest) (string, error)
}

// Gateways are optional; a nil gateway makes its route answer ErrNotConfigured.
type Gateways struct {
	Intent IntentGateway
	Link   LinkGateway
}

type Options struct {
	// PublicBaseURL is where the payment provider sends the browser back to.
	PublicBaseURL string
	Numbers       *domain.OrderNumberGenerator
}

type OrderService struct {
	repo      repository.OrderRepository
	gateways  Gateways
	publisher events.Publisher
	logger    *zap.Logger
	numbers   *domain.OrderNumberGenerator
	baseURL   string
	lookups   singleflight.Group
}

func NewOrderService(repo repository.OrderRepository, gateways Gateways, publisher events.Publisher, logger *zap.Logger, opts Options) *OrderService {
	numbers := opts.Numbers
	if numbers == nil {
		numbers = domain.NewOrderNumberGenerator()
	}
	return &OrderService{
		repo:      repo,
		gateways:  gateways,
		publisher: publisher,
		logger:    logger,
		numbers:   numbers,
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
	}
}

// setStatus moves an order to status and publishes order.status_changed when
// this call was the one that changed it.
func (s *OrderService) setStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, changed, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return order, err
	}
	if changed {
		s.publish(ctx, events.ForOrder(events.TypeOrderStatusChanged, order))
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func isIllegalTransition(err error) bool {
	return errors.Is(err, domain.ErrIllegalTransition)
}
