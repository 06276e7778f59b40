package cart

import (
	"math/rand/v2"
	"testing"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(t *testing.T, id string) domain.Product {
	t.Helper()
	for _, p := range catalog.Products() {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("unknown product %s", id)
	return domain.Product{}
}

func TestAdd_SameProductTwice(t *testing.T) {
	c := New()
	vanilla := product(t, "vanilla")

	c.Add(vanilla)
	c.Add(vanilla)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, 2, c.Items()[0].Quantity)
	assert.Equal(t, 2, c.ItemCount())
	assert.Equal(t, "79.98", c.Total().StringFixed(2))
}

func TestAdd_KeepsInsertionOrder(t *testing.T) {
	c := New()
	c.Add(product(t, "vanilla"))
	c.Add(product(t, "top-vanilla"))
	c.Add(product(t, "vanilla"))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "vanilla", items[0].Product.ID)
	assert.Equal(t, "top-vanilla", items[1].Product.ID)
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.Add(product(t, "classic-underwear"))

	c.SetQuantity("classic-underwear", 4)
	assert.Equal(t, 4, c.ItemCount())
	assert.Equal(t, "119.96", c.Total().StringFixed(2))

	c.SetQuantity("classic-underwear", 0)
	assert.True(t, c.IsEmpty())

	c.Add(product(t, "classic-underwear"))
	c.SetQuantity("classic-underwear", -3)
	assert.True(t, c.IsEmpty())
}

func TestSetQuantity_UnknownProductIsNoop(t *testing.T) {
	c := New()
	c.Add(product(t, "vanilla"))

	c.SetQuantity("missing", 5)
	assert.Equal(t, 1, c.ItemCount())
}

func TestRemove(t *testing.T) {
	c := New()
	c.Add(product(t, "vanilla"))
	c.Add(product(t, "comfort-underwear"))

	c.Remove("vanilla")
	require.Len(t, c.Items(), 1)
	assert.Equal(t, "comfort-underwear", c.Items()[0].Product.ID)

	before := c.State()
	c.Remove("does-not-exist")
	assert.Equal(t, before.Items, c.State().Items)
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(product(t, "vanilla"))
	c.Add(product(t, "top-vanilla"))
	c.SetVisible(true)

	c.Clear()
	assert.Empty(t, c.Items())
	assert.True(t, c.Total().IsZero())
	assert.Equal(t, 0, c.ItemCount())
	assert.True(t, c.Visible(), "clear leaves visibility alone")
}

func TestVisibility(t *testing.T) {
	c := New()
	assert.False(t, c.Visible())

	c.Toggle()
	assert.True(t, c.Visible())
	c.Toggle()
	assert.False(t, c.Visible())

	c.SetVisible(true)
	c.SetVisible(true)
	assert.True(t, c.Visible())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	vanilla := product(t, "vanilla")
	s0 := Reduce(State{}, AddItem{Product: vanilla})

	s1 := Reduce(s0, AddItem{Product: vanilla})
	s2 := Reduce(s1, SetQuantity{ProductID: "vanilla", Quantity: 9})

	assert.Equal(t, 1, s0.Items[0].Quantity)
	assert.Equal(t, 2, s1.Items[0].Quantity)
	assert.Equal(t, 9, s2.Items[0].Quantity)
}

func TestReduce_NilAction(t *testing.T) {
	s := State{Visible: true}
	assert.Equal(t, s, Reduce(s, nil))
}

func TestOrderItems(t *testing.T) {
	c := New()
	c.Add(product(t, "top-vanilla"))
	c.Add(product(t, "top-vanilla"))

	items := c.OrderItems()
	require.Len(t, items, 1)
	assert.Equal(t, "top-vanilla", items[0].ProductID)
	assert.Equal(t, "Top Vanilla", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, c.Total().Equal(domain.ItemsTotal(items)))
}

// Totals must equal the sums over the items after every transition.
func TestTotalsInvariant_RandomSequences(t *testing.T) {
	all := catalog.Products()
	rnd := rand.New(rand.NewPCG(42, 1))

	for run := 0; run < 200; run++ {
		c := New()
		for step := 0; step < 50; step++ {
			p := all[rnd.IntN(len(all))]
			switch rnd.IntN(6) {
			case 0, 1:
				c.Add(p)
			case 2:
				c.Remove(p.ID)
			case 3:
				c.SetQuantity(p.ID, rnd.IntN(7)-2)
			case 4:
				if rnd.IntN(10) == 0 {
					c.Clear()
				}
			case 5:
				c.Toggle()
			}
			assertInvariants(t, c.State())
		}
	}
}

func assertInvariants(t *testing.T, s State) {
	t.Helper()
	total := decimal.Zero
	count := 0
	seen := map[string]bool{}
	for _, item := range s.Items {
		require.GreaterOrEqual(t, item.Quantity, 1)
		require.False(t, seen[item.Product.ID], "duplicate item %s", item.Product.ID)
		seen[item.Product.ID] = true
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	require.True(t, total.Equal(s.Total()), "total %s != %s", s.Total(), total)
	require.Equal(t, count, s.ItemCount())
}
