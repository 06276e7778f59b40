// Package checkout drives one shopper's checkout: customer details in, payment
// handle out, and completion once the provider reports back.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepCatalog         Step = "catalog"
	StepCollectingInfo  Step = "collecting-info"
	StepSubmitting      Step = "submitting"
	StepAwaitingPayment Step = "awaiting-payment"
	StepSuccess         Step = "success"
	StepFailed          Step = "failed"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrSubmitInProgress    = errors.New("checkout already submitting")
	ErrNoPendingPayment    = errors.New("no payment awaiting completion")
	ErrPaymentNotCompleted = errors.New("payment was not completed")
)

type HandleKind string

const (
	// HandleSecret is confirmed in-page by the client.
	HandleSecret HandleKind = "secret"
	// HandleRedirect sends the browser to the provider's hosted page.
	HandleRedirect HandleKind = "redirect"
)

type Handle struct {
	Kind        HandleKind
	Value       string
	OrderID     string
	OrderNumber string
}

// Gateway obtains payment handles for the checkout. Implementations must not
// be called with an empty item list.
type Gateway interface {
	CreatePaymentHandle(ctx context.Context, amount decimal.Decimal, items []domain.OrderItem, customer domain.CustomerInfo) (*Handle, error)
	ConfirmPayment(ctx context.Context, orderID string) error
}

type Confirmation struct {
	OrderNumber string
	FollowupURL string
}

// Flow is owned by a single shopper session and is not safe for concurrent use.
type Flow struct {
	cart          *cart.Cart
	gateway       Gateway
	followupPhone string

	step         Step
	customer     domain.CustomerInfo
	lastErr      string
	handle       *Handle
	confirmation *Confirmation
}

func NewFlow(c *cart.Cart, gateway Gateway, followupPhone string) *Flow {
	return &Flow{cart: c, gateway: gateway, followupPhone: followupPhone, step: StepCatalog}
}

func (f *Flow) Step() Step { return f.step }
func (f *Flow) Customer() domain.CustomerInfo { return f.customer }
func (f *Flow) LastError() string { return f.lastErr }
func (f *Flow) PendingHandle() *Handle { return f.handle }
func (f *Flow) Confirmation() *Confirmation { return f.confirmation }

// Enter opens the checkout. An empty cart sends the shopper back to the catalog.
func (f *Flow) Enter() Step {
	if f.step == StepSubmitting || f.step == StepAwaitingPayment {
		return f.step
	}
	if f.cart.IsEmpty() {
		f.step = StepCatalog
		return f.step
	}
	f.step = StepCollectingInfo
	return f.step
}

func (f *Flow) Submit(ctx context.Context, customer domain.CustomerInfo) (*Handle, error) {
	if f.step == StepSubmitting {
		return nil, ErrSubmitInProgress
	}
	if f.cart.IsEmpty() {
		f.step = StepCatalog
		return nil, ErrEmptyCart
	}

	f.customer = customer
	if err := customer.Validate(); err != nil {
		f.step = StepCollectingInfo
		f.lastErr = err.Error()
		return nil, err
	}

	f.step = StepSubmitting
	f.lastErr = ""
	handle, err := f.gateway.CreatePaymentHandle(ctx, f.cart.Total(), f.cart.OrderItems(), customer)
	if err != nil {
		f.step = StepCollectingInfo
		f.lastErr = err.Error()
		return nil, err
	}
	if handle == nil || handle.Value == "" {
		f.step = StepCollectingInfo
		f.lastErr = "no payment handle received from payment processor"
		return nil, fmt.Errorf("%w: %s", domain.ErrGateway, f.lastErr)
	}

	f.handle = handle
	f.step = StepAwaitingPayment
	return handle, nil
}

// Complete reacts to the provider's verdict. "success" confirms the order and
// empties the cart; anything else fails the attempt and keeps the cart.
func (f *Flow) Complete(ctx context.Context, status string) (*Confirmation, error) {
	if f.handle == nil || f.step != StepAwaitingPayment {
		return nil, ErrNoPendingPayment
	}

	if !strings.EqualFold(strings.TrimSpace(status), "success") {
		f.step = StepFailed
		f.lastErr = fmt.Sprintf("payment %s", orDefault(status, "cancelled"))
		return nil, fmt.Errorf("%w: status %q", ErrPaymentNotCompleted, status)
	}

	if f.handle.Kind == HandleSecret {
		if err := f.gateway.ConfirmPayment(ctx, f.handle.OrderID); err != nil {
			f.lastErr = err.Error()
			return nil, err
		}
	}

	f.confirmation = &Confirmation{
		OrderNumber: f.handle.OrderNumber,
		FollowupURL: FollowupURL(f.followupPhone, f.handle.OrderNumber),
	}
	f.cart.Clear()
	f.handle = nil
	f.lastErr = ""
	f.step = StepSuccess
	return f.confirmation, nil
}

// Reset starts a new attempt after success or failure, keeping entered details.
func (f *Flow) Reset() Step {
	if f.step == StepFailed || f.step == StepSuccess {
		f.handle = nil
		f.step = StepCollectingInfo
		if f.cart.IsEmpty() {
			f.step = StepCatalog
		}
	}
	return f.step
}

// FollowupURL pre-fills a WhatsApp chat announcing the order.
func FollowupURL(phone, orderNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	message := fmt.Sprintf("Hello! I just completed my order #%s. Thank you!", orderNumber)
	// spaces as %20, not '+'
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
