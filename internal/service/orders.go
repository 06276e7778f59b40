package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	maxNumberAttempts  = 3
	orderLookupTimeout = 10 * time.Second
)

type CreateOrderInput struct {
	Items         []domain.OrderItem
	Total         decimal.Decimal
	CustomerEmail string
}

func (in CreateOrderInput) Validate() error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", domain.ErrValidation)
	}
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("%w: item %d has no product id", domain.ErrValidation, i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item %s quantity must be at least 1", domain.ErrValidation, item.ProductID)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %s price must not be negative", domain.ErrValidation, item.ProductID)
		}
	}
	if in.Total.IsNegative() {
		return fmt.Errorf("%w: total must not be negative", domain.ErrValidation)
	}
	return nil
}

// CreateOrder stores a pending order under a freshly generated number. A number
// that is already taken is regenerated a few times before giving up.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		order := &domain.Order{
			OrderNumber:   s.numbers.Next(),
			Items:         append([]domain.OrderItem(nil), in.Items...),
			Total:         in.Total,
			Status:        domain.OrderStatusPending,
			CustomerEmail: in.CustomerEmail,
		}
		err = s.repo.CreateOrder(ctx, order)
		if err == nil {
			s.logger.Info("order created",
				zap.String("order_id", order.ID),
				zap.String("order_number", order.OrderNumber),
				zap.String("total", order.Total.StringFixed(2)))
			s.publish(ctx, events.ForOrder(events.TypeOrderCreated, order))
			return order, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("create order: %w", err)
		}
		s.logger.Warn("order number collision", zap.String("order_number", order.OrderNumber))
	}
	return nil, fmt.Errorf("create order: %w", err)
}

// GetOrderByNumber coalesces concurrent lookups of the same number into one
// store read. The shared read is detached from any single caller's context;
// each caller still stops waiting when its own context ends.
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, fmt.Errorf("%w: order number is required", domain.ErrValidation)
	}

	ch := s.lookups.DoChan(orderNumber, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), orderLookupTimeout)
		defer cancel()
		return s.repo.GetOrderByNumber(lookupCtx, orderNumber)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	order := *res.Val.(*domain.Order)
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return &order, nil
}

type ConfirmPaymentInput struct {
	OrderID         string
	PaymentIntentID string
}

// ConfirmPayment marks the order completed once the browser reports a
// successful in-page payment. Without an order id there is nothing to update.
func (s *OrderService) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*domain.Order, error) {
	if in.OrderID == "" {
		return nil, nil
	}

	order, err := s.setStatus(ctx, in.OrderID, domain.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if in.PaymentIntentID != "" && order.PaymentReference == "" {
		if err := s.repo.SetPaymentReference(ctx, order.ID, in.PaymentIntentID); err != nil {
			return nil, fmt.Errorf("confirm payment: %w", err)
		}
		order.PaymentReference = in.PaymentIntentID
	}

	s.logger.Info("payment confirmed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))
	return order, nil
}
