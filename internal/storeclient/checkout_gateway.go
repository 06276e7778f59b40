package storeclient

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// IntentCheckout pays with a Stripe client secret: it records the order first,
// then requests an intent bound to it. The browser confirms in-page.
type IntentCheckout struct {
	client *Client
}

func NewIntentCheckout(c *Client) *IntentCheckout {
	return &IntentCheckout{client: c}
}

func (g *IntentCheckout) CreatePaymentHandle(ctx context.Context, amount decimal.Decimal, items []domain.OrderItem, _ domain.CustomerInfo) (*checkout.Handle, error) {
	order, err := g.client.CreateOrder(ctx, items, amount)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	secret, err := g.client.CreatePaymentIntent(ctx, amount, order.ID)
	if err != nil {
		return nil, fmt.Errorf("create payment intent for %s: %w", order.OrderNumber, err)
	}

	return &checkout.Handle{
		Kind:        checkout.HandleSecret,
		Value:       secret,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
	}, nil
}

func (g *IntentCheckout) ConfirmPayment(ctx context.Context, orderID string) error {
	return g.client.ConfirmPayment(ctx, orderID)
}

// LinkCheckout pays through a hosted Payflowly page; the server learns about
// completion from the webhook.
type LinkCheckout struct {
	client *Client
}

func NewLinkCheckout(c *Client) *LinkCheckout {
	return &LinkCheckout{client: c}
}

func (g *LinkCheckout) CreatePaymentHandle(ctx context.Context, amount decimal.Decimal, items []domain.OrderItem, customer domain.CustomerInfo) (*checkout.Handle, error) {
	link, err := g.client.CreatePaymentLink(ctx, amount, items, customer)
	if err != nil {
		return nil, err
	}
	if link.PaymentURL == "" {
		return nil, fmt.Errorf("%w: no payment URL received from payment processor", domain.ErrGateway)
	}

	return &checkout.Handle{
		Kind:        checkout.HandleRedirect,
		Value:       link.PaymentURL,
		OrderID:     link.OrderID,
		OrderNumber: link.OrderNumber,
	}, nil
}

func (g *LinkCheckout) ConfirmPayment(context.Context, string) error {
	return nil
}

var (
	_ checkout.Gateway = (*IntentCheckout)(nil)
	_ checkout.Gateway = (*LinkCheckout)(nil)
)
