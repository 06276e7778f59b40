package features

import (
	"context"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
)

type cartTestContext struct {
	cart *cart.Cart
}

func (c *cartTestContext) reset() {
	c.cart = cart.New()
}

func (c *cartTestContext) anEmptyCart() error {
	c.reset()
	return nil
}

func (c *cartTestContext) iAddToTheCart(id string) error {
	p, err := catalog.Static{}.GetProduct(context.Background(), id)
	if err != nil {
		return err
	}
	c.cart.Add(*p)
	return nil
}

func (c *cartTestContext) iRemoveFromTheCart(id string) error {
	c.cart.Remove(id)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfTo(id string, q int) error {
	c.cart.SetQuantity(id, q)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.cart.Clear()
	return nil
}

func (c *cartTestContext) iToggleTheCart() error {
	c.cart.Toggle()
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.cart.Items()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theQuantityOfIs(id string, q int) error {
	for _, item := range c.cart.Items() {
		if item.Product.ID == id {
			if item.Quantity != q {
				return fmt.Errorf("expected quantity %d for %s, got %d", q, id, item.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("%s is not in the cart", id)
}

func (c *cartTestContext) theCartTotalIs(total string) error {
	if got := c.cart.Total().StringFixed(2); got != total {
		return fmt.Errorf("expected total %s, got %s", total, got)
	}
	return nil
}

func (c *cartTestContext) theItemCountIs(n int) error {
	if got := c.cart.ItemCount(); got != n {
		return fmt.Errorf("expected item count %d, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsVisible() error {
	if !c.cart.Visible() {
		return fmt.Errorf("expected cart to be visible")
	}
	return nil
}

func (c *cartTestContext) theCartIsHidden() error {
	if c.cart.Visible() {
		return fmt.Errorf("expected cart to be hidden")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAddToTheCart)
	ctx.Step(`^I remove "([^"]*)" from the cart$`, tc.iRemoveFromTheCart)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfTo)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I toggle the cart$`, tc.iToggleTheCart)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
	ctx.Step(`^the cart total is "([^"]*)"$`, tc.theCartTotalIs)
	ctx.Step(`^the item count is (\d+)$`, tc.theItemCountIs)
	ctx.Step(`^the cart is visible$`, tc.theCartIsVisible)
	ctx.Step(`^the cart is hidden$`, tc.theCartIsHidden)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
