package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// MemoryRepository keeps orders in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order // id -> order
	byNumber map[string]string        // order number -> id
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[string]*domain.Order),
		byNumber: make(map[string]string),
		now:      time.Now,
	}
}

func (m *MemoryRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byNumber[order.OrderNumber]; exists {
		return fmt.Errorf("order number %s: %w", order.OrderNumber, domain.ErrConflict)
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := m.now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	m.orders[order.ID] = cloneOrder(order)
	m.byNumber[order.OrderNumber] = order.ID
	return nil
}

func (m *MemoryRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return cloneOrder(order), nil
}

func (m *MemoryRepository) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.byNumber[orderNumber]
	if !exists {
		return nil, fmt.Errorf("order %s: %w", orderNumber, domain.ErrNotFound)
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, false, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	if !domain.CanTransitionTo(order.Status, status) {
		return cloneOrder(order), false, fmt.Errorf("%s -> %s: %w", order.Status, status, domain.ErrIllegalTransition)
	}
	if order.Status == status {
		return cloneOrder(order), false, nil
	}

	order.Status = status
	order.UpdatedAt = m.now().UTC()
	return cloneOrder(order), true, nil
}

func (m *MemoryRepository) SetPaymentReference(_ context.Context, id, reference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	order.PaymentReference = reference
	order.UpdatedAt = m.now().UTC()
	return nil
}

func (m *MemoryRepository) Close() error {
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}
