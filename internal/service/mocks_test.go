package service

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/shopspring/decimal"
)

// MockPublisher records published events
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) OfType(t events.Type) []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.Event
	for _, e := range m.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// MockIntentGateway implements IntentGateway for testing
type MockIntentGateway struct {
	Intent  *payment.Intent
	Err     error
	Calls   int
	Amount  decimal.Decimal
	OrderID string
}

func (m *MockIntentGateway) CreateIntent(_ context.Context, amount decimal.Decimal, orderID string) (*payment.Intent, error) {
	m.Calls++
	m.Amount = amount
	m.OrderID = orderID
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Intent, nil
}

// MockLinkGateway implements LinkGateway for testing
type MockLinkGateway struct {
	URL     string
	Err     error
	Calls   int
	Request payment.LinkRequest
}

func (m *MockLinkGateway) CreateLink(_ context.Context, req payment.LinkRequest) (string, error) {
	m.Calls++
	m.Request = req
	if m.Err != nil {
		return "", m.Err
	}
	return m.URL, nil
}

// MockRepository wraps the in-memory store and lets tests inject failures
type MockRepository struct {
	*repository.MemoryRepository
	CreateErr     error
	UpdateErr     error
	SetRefErr     error
	LookupsByNum  int
	lookupsMu     sync.Mutex
	lookupRelease chan struct{}
}

func NewMockRepository() *MockRepository {
	return &MockRepository{MemoryRepository: repository.NewMemoryRepository()}
}

func (m *MockRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	return m.MemoryRepository.CreateOrder(ctx, order)
}

func (m *MockRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	m.lookupsMu.Lock()
	m.LookupsByNum++
	m.lookupsMu.Unlock()
	if m.lookupRelease != nil {
		select {
		case <-m.lookupRelease:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.MemoryRepository.GetOrderByNumber(ctx, orderNumber)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	if m.UpdateErr != nil {
		return nil, false, m.UpdateErr
	}
	return m.MemoryRepository.UpdateStatus(ctx, id, status)
}

func (m *MockRepository) SetPaymentReference(ctx context.Context, id, reference string) error {
	if m.SetRefErr != nil {
		return m.SetRefErr
	}
	return m.MemoryRepository.SetPaymentReference(ctx, id, reference)
}
