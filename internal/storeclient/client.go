// Package storeclient talks to the storefront HTTP API on behalf of a shopper.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseSize = 1 << 20

// APIError is a non-2xx answer from the API. It unwraps to the domain error
// matching its status so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return domain.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case e.StatusCode == http.StatusServiceUnavailable:
		return domain.ErrNotConfigured
	case e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrGateway
	default:
		return nil
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New builds a client with a traced transport and the given request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "storefront-api",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// client errors say nothing about the server's health
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc, breaker: breaker}
}

type productsResponse struct {
	Products []domain.Product `json:"products"`
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

type createOrderRequest struct {
	Items []domain.OrderItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

func (c *Client) CreateOrder(ctx context.Context, items []domain.OrderItem, total decimal.Decimal) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", createOrderRequest{Items: items, Total: total}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderNumber), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

type paymentIntentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"orderId,omitempty"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, orderID string) (string, error) {
	var resp paymentIntentResponse
	if err := c.do(ctx, http.MethodPost, "/api/create-payment-intent", paymentIntentRequest{Amount: amount, OrderID: orderID}, &resp); err != nil {
		return "", err
	}
	return resp.ClientSecret, nil
}

type paymentLinkRequest struct {
	Amount       decimal.Decimal     `json:"amount"`
	Items        []domain.OrderItem  `json:"items"`
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
}

type PaymentLink struct {
	PaymentURL  string `json:"paymentUrl"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

func (c *Client) CreatePaymentLink(ctx context.Context, amount decimal.Decimal, items []domain.OrderItem, customer domain.CustomerInfo) (*PaymentLink, error) {
	var link PaymentLink
	req := paymentLinkRequest{Amount: amount, Items: items, CustomerInfo: customer}
	if err := c.do(ctx, http.MethodPost, "/api/create-payment-link", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

type confirmPaymentRequest struct {
	OrderID string `json:"orderId,omitempty"`
}

func (c *Client) ConfirmPayment(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPost, "/api/confirm-payment", confirmPaymentRequest{OrderID: orderID}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload)
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		return nil, apiErr
	}
	return body, nil
}
