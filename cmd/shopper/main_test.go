package main

import (
	"testing"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillCart(t *testing.T) {
	products := catalog.Products()
	first, second := products[0].ID, products[1].ID

	c := cart.New()
	require.NoError(t, fillCart(c, products, first+":3, "+second+",,"))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 4, c.ItemCount())
}

func TestFillCart_ZeroQuantityDropsItem(t *testing.T) {
	products := catalog.Products()

	c := cart.New()
	require.NoError(t, fillCart(c, products, products[0].ID+":0"))
	assert.True(t, c.IsEmpty())
}

func TestFillCart_Errors(t *testing.T) {
	products := catalog.Products()

	err := fillCart(cart.New(), products, "no-such-product")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = fillCart(cart.New(), products, products[0].ID+":many")
	assert.Error(t, err)
}
