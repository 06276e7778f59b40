package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const stripeProvider = "stripe"

var hundred = decimal.NewFromInt(100)

type Intent struct {
	ID           string
	ClientSecret string
}

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// IntentGateway creates Stripe payment intents. The client secret is handed to
// the browser, which confirms the payment in-page.
type IntentGateway struct {
	intents intentAPI
	timeout time.Duration
}

// NewIntentGateway builds its own Stripe client so nothing is read from
// package-level Stripe state.
func NewIntentGateway(secretKey string, timeout time.Duration, backends *stripe.Backends) *IntentGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return newIntentGateway(sc.PaymentIntents, timeout)
}

func newIntentGateway(intents intentAPI, timeout time.Duration) *IntentGateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &IntentGateway{intents: intents, timeout: timeout}
}

func (g *IntentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, orderID string) (*Intent, error) {
	if !amount.IsPositive() {
		return nil, &GatewayError{Provider: stripeProvider, Op: "create payment intent",
			Err: fmt.Errorf("amount must be positive, got %s", amount)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToCents(amount)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.Context = ctx
	params.AddMetadata("orderId", orderID)

	pi, err := g.intents.New(params)
	if err != nil {
		gwErr := &GatewayError{Provider: stripeProvider, Op: "create payment intent", Err: err}
		if ctx.Err() == context.DeadlineExceeded {
			gwErr.Timeout = true
		}
		return nil, gwErr
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ToCents rounds half away from zero to whole cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
