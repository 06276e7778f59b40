package storeclient

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/payment"
	"github.com/shopspring/decimal"
)

type IntentGatewayMock struct {
	mu       sync.Mutex
	Secret   string
	OrderIDs []string
}

func (m *IntentGatewayMock) CreateIntent(_ context.Context, _ decimal.Decimal, orderID string) (*payment.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderIDs = append(m.OrderIDs, orderID)
	return &payment.Intent{ID: "pi_test", ClientSecret: m.Secret}, nil
}

type LinkGatewayMock struct {
	mu       sync.Mutex
	URL      string
	Requests []payment.LinkRequest
}

func (m *LinkGatewayMock) CreateLink(_ context.Context, req payment.LinkRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	return m.URL, nil
}
