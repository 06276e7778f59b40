package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, orderID string) (string, error)
	CreatePaymentLink(ctx context.Context, in service.CreatePaymentLinkInput) (*service.PaymentLink, error)
	HandleWebhook(ctx context.Context, event service.WebhookEvent) error
	RejectWebhook(ctx context.Context, cause error)
}

type PaymentsHandler struct {
	payments    PaymentService
	logger      *zap.Logger
	timeout     time.Duration
	maxBodySize int64
}

func NewPaymentsHandler(payments PaymentService, logger *zap.Logger, timeout time.Duration, maxBodySize int64) *PaymentsHandler {
	return &PaymentsHandler{payments: payments, logger: logger, timeout: timeout, maxBodySize: maxBodySize}
}

type CreatePaymentIntentRequestDTO struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"orderId"`
}

type CreatePaymentIntentResponseDTO struct {
	ClientSecret string `json:"clientSecret"`
}

type CreatePaymentLinkRequestDTO struct {
	Amount       decimal.Decimal     `json:"amount"`
	Items        []domain.OrderItem  `json:"items"`
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
}

type WebhookResponseDTO struct {
	Success bool `json:"success"`
}

// POST /api/create-payment-intent
func (h *PaymentsHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreatePaymentIntentRequestDTO
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid amount")
		return
	}

	secret, err := h.payments.CreatePaymentIntent(ctx, req.Amount, req.OrderID)
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		respondError(w, h.logger, http.StatusServiceUnavailable, "Payment processing not configured. Please set up Stripe keys.")
		return
	case errors.Is(err, domain.ErrValidation):
		respondError(w, h.logger, http.StatusBadRequest, "Invalid amount")
		return
	case err != nil:
		handleError(w, r, h.logger, err, "Error creating payment intent")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, CreatePaymentIntentResponseDTO{ClientSecret: secret})
}

// POST /api/create-payment-link
func (h *PaymentsHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreatePaymentLinkRequestDTO
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		handleError(w, r, h.logger, err, "Error creating payment link")
		return
	}

	link, err := h.payments.CreatePaymentLink(ctx, service.CreatePaymentLinkInput{
		Amount:   req.Amount,
		Items:    req.Items,
		Customer: req.CustomerInfo,
	})
	if errors.Is(err, domain.ErrNotConfigured) {
		respondError(w, h.logger, http.StatusServiceUnavailable, "Payment processing not configured. Please set up Payflowly keys.")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err, "Error creating payment link")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, link)
}

// POST /api/payflowly-webhook
//
// The provider always gets a success acknowledgement so it does not retry;
// failures are logged and published by the service instead.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var event service.WebhookEvent
	if err := decodeJSON(w, r, h.maxBodySize, &event); err != nil {
		h.payments.RejectWebhook(ctx, err)
		respondJSON(w, h.logger, http.StatusOK, WebhookResponseDTO{Success: true})
		return
	}

	if err := h.payments.HandleWebhook(ctx, event); err != nil {
		requestLogger(r, h.logger).Debug("webhook acknowledged despite failure", zap.Error(err))
	}
	respondJSON(w, h.logger, http.StatusOK, WebhookResponseDTO{Success: true})
}
