package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const (
	payflowlyProvider   = "payflowly"
	maxUpstreamBodySize = 1 << 20
	maxErrorBodyLen     = 256
)

type PayflowlyConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func (c PayflowlyConfig) Configured() bool {
	return c.APIKey != "" && c.BaseURL != ""
}

type LinkRequest struct {
	Amount      decimal.Decimal
	ReferenceID string
	Description string
	Customer    domain.CustomerInfo
	Items       []domain.OrderItem
	SuccessURL  string
	CancelURL   string
}

type linkRequestBody struct {
	Amount      json.Number      `json:"amount"`
	Currency    string           `json:"currency"`
	Description string           `json:"description"`
	ReferenceID string           `json:"reference_id"`
	Customer    linkCustomerBody `json:"customer"`
	Items       []linkItemBody   `json:"items"`
	SuccessURL  string           `json:"success_url,omitempty"`
	CancelURL   string           `json:"cancel_url,omitempty"`
}

type linkCustomerBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type linkItemBody struct {
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

type upstreamStatusError struct {
	status int
	body   string
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// LinkGateway creates hosted payment links on Payflowly. Completion is reported
// later through the webhook, keyed by the reference id sent here.
type LinkGateway struct {
	cfg     PayflowlyConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewLinkGateway(cfg PayflowlyConfig, client *http.Client) *LinkGateway {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        payflowlyProvider,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &LinkGateway{cfg: cfg, client: client, breaker: breaker}
}

func (g *LinkGateway) CreateLink(ctx context.Context, req LinkRequest) (string, error) {
	if !req.Amount.IsPositive() {
		return "", &GatewayError{Provider: payflowlyProvider, Op: "create payment link",
			Err: fmt.Errorf("amount must be positive, got %s", req.Amount)}
	}

	payload, err := json.Marshal(newLinkRequestBody(req))
	if err != nil {
		return "", fmt.Errorf("marshal payment link request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	body, err := g.breaker.Execute(func() ([]byte, error) {
		return g.post(ctx, payload)
	})
	if err != nil {
		return "", g.wrap(ctx, err)
	}

	return ExtractPaymentURL(body)
}

func (g *LinkGateway) post(ctx context.Context, payload []byte) ([]byte, error) {
	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/payment-links"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodySize))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &upstreamStatusError{status: resp.StatusCode, body: truncate(string(body), maxErrorBodyLen)}
	}
	return body, nil
}

func (g *LinkGateway) wrap(ctx context.Context, err error) error {
	gwErr := &GatewayError{Provider: payflowlyProvider, Op: "create payment link", Err: err}

	var statusErr *upstreamStatusError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		gwErr.Timeout = true
	case errors.As(err, &statusErr):
		gwErr.StatusCode = statusErr.status
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		gwErr.Err = fmt.Errorf("upstream unavailable: %w", err)
	}
	return gwErr
}

func newLinkRequestBody(req LinkRequest) linkRequestBody {
	items := make([]linkItemBody, len(req.Items))
	for i, item := range req.Items {
		items[i] = linkItemBody{
			Name:     item.Name,
			Price:    json.Number(item.Price.StringFixed(2)),
			Quantity: item.Quantity,
		}
	}
	return linkRequestBody{
		Amount:      json.Number(req.Amount.StringFixed(2)),
		Currency:    "USD",
		Description: req.Description,
		ReferenceID: req.ReferenceID,
		Customer: linkCustomerBody{
			Name:  req.Customer.FullName(),
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items:      items,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
