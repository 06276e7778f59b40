package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order in status from may move to status to.
// Re-applying the current status is allowed and is a no-op for the stores.
func CanTransitionTo(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing || to == OrderStatusCompleted
	case OrderStatusProcessing:
		return to == OrderStatusCompleted
	default:
		return false
	}
}

// AllowedSources lists the other statuses from which to can be reached.
func AllowedSources(to OrderStatus) []OrderStatus {
	var out []OrderStatus
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted} {
		if s != to && CanTransitionTo(s, to) {
			out = append(out, s)
		}
	}
	return out
}

type OrderItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID               string          `json:"id"`
	OrderNumber      string          `json:"orderNumber"`
	Items            []OrderItem     `json:"items"`
	Total            decimal.Decimal `json:"total"`
	Status           OrderStatus     `json:"status"`
	CustomerEmail    string          `json:"customerEmail,omitempty"`
	PaymentReference string          `json:"paymentReference,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ItemsTotal sums price times quantity over items.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
