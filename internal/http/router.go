// Package http exposes the storefront API over chi.
package http

import (
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger         *zap.Logger
	Catalog        catalog.RepoInterface
	Orders         OrderService
	Payments       PaymentService
	RequestTimeout time.Duration
	MaxBodySize    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20 // 1MB
	}

	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Logger, cfg.RequestTimeout)
	ordersHandler := NewOrdersHandler(cfg.Orders, cfg.Logger, cfg.RequestTimeout, cfg.MaxBodySize)
	paymentsHandler := NewPaymentsHandler(cfg.Payments, cfg.Logger, cfg.RequestTimeout, cfg.MaxBodySize)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, cfg.Logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", catalogHandler.List)
			r.Get("/{id}", catalogHandler.Get)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.Create)
			r.Get("/{orderNumber}", ordersHandler.Get)
		})
		r.Post("/create-payment-intent", paymentsHandler.CreateIntent)
		r.Post("/create-payment-link", paymentsHandler.CreateLink)
		r.Post("/payflowly-webhook", paymentsHandler.Webhook)
		r.Post("/confirm-payment", ordersHandler.ConfirmPayment)
	})

	return r
}
