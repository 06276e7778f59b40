package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog catalog.RepoInterface
	logger  *zap.Logger
	timeout time.Duration
}

func NewCatalogHandler(c catalog.RepoInterface, logger *zap.Logger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger, timeout: timeout}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.GetAllProducts(ctx)
	if err != nil {
		handleError(w, r, h.logger, err, "Error fetching products")
		return
	}

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		products = catalog.FilterByCategory(products, category)
	}

	respondJSON(w, h.logger, http.StatusOK, ProductsResponse{Products: products})
}

// GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		respondError(w, h.logger, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		handleError(w, r, h.logger, err, "Error fetching product")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, product)
}
