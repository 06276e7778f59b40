// Package cart holds a shopper's selection of products as a small state machine.
// State is only changed through Reduce; totals are derived on every read.
package cart

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type Item struct {
	Product  domain.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type State struct {
	Items   []Item `json:"items"`
	Visible bool   `json:"isOpen"`
}

func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s State) ItemCount() int {
	count := 0
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

type Action interface {
	apply(State) State
}

type AddItem struct{ Product domain.Product }

type RemoveItem struct{ ProductID string }

// SetQuantity removes the item when Quantity <= 0.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

type Clear struct{}

type ToggleVisible struct{}

type SetVisible struct{ Visible bool }

// Reduce returns the state after applying action. The input state is not modified.
func Reduce(s State, action Action) State {
	if action == nil {
		return s
	}
	return action.apply(s)
}

func (a AddItem) apply(s State) State {
	items := make([]Item, 0, len(s.Items)+1)
	found := false
	for _, item := range s.Items {
		if item.Product.ID == a.Product.ID {
			item.Quantity++
			found = true
		}
		items = append(items, item)
	}
	if !found {
		items = append(items, Item{Product: a.Product, Quantity: 1})
	}
	s.Items = items
	return s
}

func (a RemoveItem) apply(s State) State {
	s.Items = without(s.Items, a.ProductID)
	return s
}

func (a SetQuantity) apply(s State) State {
	if a.Quantity <= 0 {
		s.Items = without(s.Items, a.ProductID)
		return s
	}
	items := make([]Item, len(s.Items))
	for i, item := range s.Items {
		if item.Product.ID == a.ProductID {
			item.Quantity = a.Quantity
		}
		items[i] = item
	}
	s.Items = items
	return s
}

func (Clear) apply(s State) State {
	s.Items = []Item{}
	return s
}

func (ToggleVisible) apply(s State) State {
	s.Visible = !s.Visible
	return s
}

func (a SetVisible) apply(s State) State {
	s.Visible = a.Visible
	return s
}

func without(items []Item, productID string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Product.ID != productID {
			out = append(out, item)
		}
	}
	return out
}

// Cart is a single-owner holder of State. It is not safe for concurrent use.
type Cart struct {
	state State
}

func New() *Cart {
	return &Cart{state: State{Items: []Item{}}}
}

func (c *Cart) Dispatch(action Action) {
	c.state = Reduce(c.state, action)
}

func (c *Cart) Add(p domain.Product) { c.Dispatch(AddItem{Product: p}) }
func (c *Cart) Remove(productID string) { c.Dispatch(RemoveItem{ProductID: productID}) }
func (c *Cart) SetQuantity(productID string, q int) { c.Dispatch(SetQuantity{ProductID: productID, Quantity: q}) }
func (c *Cart) Clear() { c.Dispatch(Clear{}) }
func (c *Cart) Toggle() { c.Dispatch(ToggleVisible{}) }
func (c *Cart) SetVisible(v bool) { c.Dispatch(SetVisible{Visible: v}) }

func (c *Cart) State() State { return c.state }

// Items returns a copy of the current items.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.state.Items))
	copy(out, c.state.Items)
	return out
}

func (c *Cart) Total() decimal.Decimal { return c.state.Total() }
func (c *Cart) ItemCount() int { return c.state.ItemCount() }
func (c *Cart) IsEmpty() bool { return len(c.state.Items) == 0 }
func (c *Cart) Visible() bool { return c.state.Visible }

// OrderItems converts the cart contents into order line items.
func (c *Cart) OrderItems() []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(c.state.Items))
	for _, item := range c.state.Items {
		out = append(out, domain.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		})
	}
	return out
}
