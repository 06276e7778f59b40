package catalog

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type RepoInterface interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	Close() error
}

var products = []domain.Product{
	{
		ID:          "top-vanilla",
		Name:        "Top Vanilla",
		Price:       decimal.RequireFromString("59.99"),
		Description: "Premium top-grade vanilla products for the discerning gentleman.",
		Image:       "/assets/top-vanilla.jpeg",
		Category:    domain.CategoryVanilla,
	},
	{
		ID:          "vanilla",
		Name:        "Vanilla",
		Price:       decimal.RequireFromString("39.99"),
		Description: "High-quality vanilla products for daily use.",
		Image:       "/assets/vanilla.jpeg",
		Category:    domain.CategoryVanilla,
	},
	{
		ID:          "premium-underwear",
		Name:        "Premium Underwear",
		Price:       decimal.RequireFromString("49.99"),
		Description: "Luxury mens underwear crafted for ultimate comfort and style.",
		Image:       "/assets/premium-underwear.jpeg",
		Category:    domain.CategoryUnderwear,
	},
	{
		ID:          "classic-underwear",
		Name:        "Classic Underwear",
		Price:       decimal.RequireFromString("29.99"),
		Description: "Traditional mens underwear with modern comfort technology.",
		Image:       "/assets/classic-underwear.jpeg",
		Category:    domain.CategoryUnderwear,
	},
	{
		ID:          "comfort-underwear",
		Name:        "Comfort Underwear",
		Price:       decimal.RequireFromString("34.99"),
		Description: "Designed for all-day comfort with breathable materials.",
		Image:       "/assets/comfort-underwear.jpeg",
		Category:    domain.CategoryUnderwear,
	},
}

// Products returns a copy of the build-time catalog.
func Products() []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}

// Static serves the build-time catalog.
type Static struct{}

func (Static) GetAllProducts(_ context.Context) ([]domain.Product, error) {
	return Products(), nil
}

func (Static) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", id, domain.ErrNotFound)
}

func (Static) Close() error { return nil }

// FilterByCategory keeps the catalog order.
func FilterByCategory(all []domain.Product, c domain.Category) []domain.Product {
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}
