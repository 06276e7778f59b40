package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusCompleted, true},
		{OrderStatusCompleted, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusProcessing, false},
		{OrderStatusCompleted, OrderStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

func TestAllowedSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]OrderStatus{OrderStatusPending, OrderStatusProcessing},
		AllowedSources(OrderStatusCompleted))
	assert.ElementsMatch(t,
		[]OrderStatus{OrderStatusPending},
		AllowedSources(OrderStatusProcessing))
	assert.Empty(t, AllowedSources(OrderStatusPending))
}

func TestItemsTotal(t *testing.T) {
	items := []OrderItem{
		{ProductID: "vanilla", Price: decimal.RequireFromString("39.99"), Quantity: 3},
		{ProductID: "classic-underwear", Price: decimal.RequireFromString("29.99"), Quantity: 1},
	}
	assert.True(t, decimal.RequireFromString("149.96").Equal(ItemsTotal(items)))
}

func TestCustomerInfo_Validate(t *testing.T) {
	valid := CustomerInfo{FirstName: "Sam", LastName: "Lee", Email: "sam@example.com"}
	assert.NoError(t, valid.Validate())

	missingEmail := valid
	missingEmail.Email = " "
	assert.ErrorIs(t, missingEmail.Validate(), ErrValidation)

	badEmail := valid
	badEmail.Email = "sam.example.com"
	assert.ErrorIs(t, badEmail.Validate(), ErrValidation)

	noName := valid
	noName.FirstName = ""
	assert.ErrorIs(t, noName.Validate(), ErrValidation)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("underwear")
	assert.NoError(t, err)
	assert.Equal(t, CategoryUnderwear, c)

	_, err = ParseCategory("socks")
	assert.ErrorIs(t, err, ErrValidation)
}
