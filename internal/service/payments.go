package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreatePaymentIntent asks Stripe for a client secret. When orderID names a known
// order it moves to processing and remembers the intent id.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, orderID string) (string, error) {
	if s.gateways.Intent == nil {
		return "", fmt.Errorf("%w: set STRIPE_SECRET_KEY", domain.ErrNotConfigured)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: invalid amount", domain.ErrValidation)
	}

	intent, err := s.gateways.Intent.CreateIntent(ctx, amount, orderID)
	if err != nil {
		return "", err
	}

	if orderID != "" {
		s.markProcessing(ctx, orderID, intent.ID)
	}
	return intent.ClientSecret, nil
}

// markProcessing is best effort: the client secret is already issued, so store
// problems are logged rather than failing the request.
func (s *OrderService) markProcessing(ctx context.Context, orderID, intentID string) {
	logger := s.logger.With(zap.String("order_id", orderID), zap.String("payment_intent_id", intentID))

	_, err := s.setStatus(ctx, orderID, domain.OrderStatusProcessing)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("payment intent for unknown order")
		return
	case isIllegalTransition(err):
		logger.Info("order already past processing", zap.Error(err))
		return
	case err != nil:
		logger.Error("failed to mark order processing", zap.Error(err))
		return
	}

	if err := s.repo.SetPaymentReference(ctx, orderID, intentID); err != nil {
		logger.Error("failed to store payment intent id", zap.Error(err))
	}
}

type CreatePaymentLinkInput struct {
	Amount   decimal.Decimal
	Items    []domain.OrderItem
	Customer domain.CustomerInfo
}

type PaymentLink struct {
	PaymentURL  string `json:"paymentUrl"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

// CreatePaymentLink records a pending order and asks Payflowly for a hosted
// payment page referencing it. The order is kept when the gateway fails.
func (s *OrderService) CreatePaymentLink(ctx context.Context, in CreatePaymentLinkInput) (*PaymentLink, error) {
	if s.gateways.Link == nil {
		return nil, fmt.Errorf("%w: set PAYFLOWLY_API_KEY", domain.ErrNotConfigured)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: invalid amount", domain.ErrValidation)
	}
	if err := in.Customer.Validate(); err != nil {
		return nil, err
	}

	order, err := s.CreateOrder(ctx, CreateOrderInput{
		Items:         in.Items,
		Total:         in.Amount,
		CustomerEmail: in.Customer.Email,
	})
	if err != nil {
		return nil, err
	}

	url, err := s.gateways.Link.CreateLink(ctx, payment.LinkRequest{
		Amount:      in.Amount,
		ReferenceID: order.ID,
		Description: "Order " + order.OrderNumber,
		Customer:    in.Customer,
		Items:       in.Items,
		SuccessURL:  s.baseURL + "/checkout?status=success&order=" + order.OrderNumber,
		CancelURL:   s.baseURL + "/checkout?status=cancelled&order=" + order.OrderNumber,
	})
	if err != nil {
		s.logger.Error("failed to create payment link",
			zap.String("order_id", order.ID),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err))
		return nil, err
	}

	return &PaymentLink{PaymentURL: url, OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}
