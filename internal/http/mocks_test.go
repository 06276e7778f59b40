package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServiceMock implements OrderService for testing
type OrderServiceMock struct {
	Order      *domain.Order
	Err        error
	GotCreate  service.CreateOrderInput
	GotNumber  string
	GotConfirm service.ConfirmPaymentInput
}

func (m *OrderServiceMock) CreateOrder(_ context.Context, in service.CreateOrderInput) (*domain.Order, error) {
	m.GotCreate = in
	return m.Order, m.Err
}

func (m *OrderServiceMock) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.GotNumber = orderNumber
	return m.Order, m.Err
}

func (m *OrderServiceMock) ConfirmPayment(_ context.Context, in service.ConfirmPaymentInput) (*domain.Order, error) {
	m.GotConfirm = in
	return m.Order, m.Err
}

// PaymentServiceMock implements PaymentService for testing
type PaymentServiceMock struct {
	Secret     string
	Link       *service.PaymentLink
	Err        error
	WebhookErr error
	GotAmount  decimal.Decimal
	GotOrderID string
	GotLink    service.CreatePaymentLinkInput
	GotWebhook *service.WebhookEvent
	Rejected   []error
}

func (m *PaymentServiceMock) CreatePaymentIntent(_ context.Context, amount decimal.Decimal, orderID string) (string, error) {
	m.GotAmount = amount
	m.GotOrderID = orderID
	return m.Secret, m.Err
}

func (m *PaymentServiceMock) CreatePaymentLink(_ context.Context, in service.CreatePaymentLinkInput) (*service.PaymentLink, error) {
	m.GotLink = in
	return m.Link, m.Err
}

func (m *PaymentServiceMock) HandleWebhook(_ context.Context, event service.WebhookEvent) error {
	m.GotWebhook = &event
	return m.WebhookErr
}

func (m *PaymentServiceMock) RejectWebhook(_ context.Context, cause error) {
	m.Rejected = append(m.Rejected, cause)
}

// CatalogMock implements catalog.RepoInterface for testing
type CatalogMock struct {
	Products []domain.Product
	Err      error
}

func (m *CatalogMock) GetAllProducts(_ context.Context) ([]domain.Product, error) {
	return m.Products, m.Err
}

func (m *CatalogMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.Products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *CatalogMock) Close() error {
	return nil
}
