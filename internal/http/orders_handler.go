package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, in service.ConfirmPaymentInput) (*domain.Order, error)
}

type OrdersHandler struct {
	orders      OrderService
	logger      *zap.Logger
	timeout     time.Duration
	maxBodySize int64
}

func NewOrdersHandler(orders OrderService, logger *zap.Logger, timeout time.Duration, maxBodySize int64) *OrdersHandler {
	return &OrdersHandler{orders: orders, logger: logger, timeout: timeout, maxBodySize: maxBodySize}
}

type CreateOrderRequestDTO struct {
	Items []domain.OrderItem `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type ConfirmPaymentRequestDTO struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type ConfirmPaymentResponseDTO struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order,omitempty"`
}

// POST /api/orders
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Error creating order: "+err.Error())
		return
	}

	order, err := h.orders.CreateOrder(ctx, service.CreateOrderInput{Items: req.Items, Total: req.Total})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			respondError(w, h.logger, http.StatusBadRequest, "Error creating order: "+err.Error())
			return
		}
		handleError(w, r, h.logger, err, "Error creating order")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// GET /api/orders/{orderNumber}
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrderByNumber(ctx, chi.URLParam(r, "orderNumber"))
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, h.logger, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err, "Error fetching order")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, order)
}

// POST /api/confirm-payment
func (h *OrdersHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmPaymentRequestDTO
	if err := decodeJSON(w, r, h.maxBodySize, &req); err != nil {
		handleError(w, r, h.logger, err, "Error confirming payment")
		return
	}

	order, err := h.orders.ConfirmPayment(ctx, service.ConfirmPaymentInput{
		OrderID:         req.OrderID,
		PaymentIntentID: req.PaymentIntentID,
	})
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, h.logger, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err, "Error confirming payment")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, ConfirmPaymentResponseDTO{Success: true, Order: order})
}
