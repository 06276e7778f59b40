package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryVanilla   Category = "vanilla"
	CategoryUnderwear Category = "underwear"
)

func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryVanilla, CategoryUnderwear:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    Category        `json:"category"`
}
