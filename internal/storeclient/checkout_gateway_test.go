package storeclient

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/events"
	storehttp "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var shopper = domain.CustomerInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

func newStore(t *testing.T, gateways service.Gateways) *Client {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := service.NewOrderService(repository.NewMemoryRepository(), gateways, events.NewLogPublisher(logger), logger,
		service.Options{PublicBaseURL: "https://shop.example.com"})

	srv := httptest.NewServer(storehttp.NewRouter(storehttp.RouterConfig{
		Logger:   logger,
		Catalog:  catalog.Static{},
		Orders:   svc,
		Payments: svc,
	}))
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL, srv.Client())
}

func fillCart(t *testing.T, c *Client) *cart.Cart {
	t.Helper()
	products, err := c.Products(context.Background())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(products), 2)

	shopCart := cart.New()
	shopCart.Add(products[0])
	shopCart.Add(products[0])
	shopCart.Add(products[1])
	return shopCart
}

func TestIntentCheckout_EndToEnd(t *testing.T) {
	intents := &IntentGatewayMock{Secret: "pi_test_secret_abc"}
	client := newStore(t, service.Gateways{Intent: intents})
	shopCart := fillCart(t, client)
	total := shopCart.Total()

	flow := checkout.NewFlow(shopCart, NewIntentCheckout(client), "+1 555 0100")
	assert.Equal(t, checkout.StepCollectingInfo, flow.Enter())

	handle, err := flow.Submit(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, checkout.HandleSecret, handle.Kind)
	assert.Equal(t, "pi_test_secret_abc", handle.Value)
	require.NotEmpty(t, handle.OrderID)
	assert.Equal(t, []string{handle.OrderID}, intents.OrderIDs)

	order, err := client.GetOrder(context.Background(), handle.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.True(t, total.Equal(order.Total))

	confirmation, err := flow.Complete(context.Background(), "success")
	require.NoError(t, err)
	assert.Equal(t, handle.OrderNumber, confirmation.OrderNumber)
	assert.True(t, shopCart.IsEmpty())

	order, err = client.GetOrder(context.Background(), handle.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
}

func TestLinkCheckout_EndToEnd(t *testing.T) {
	links := &LinkGatewayMock{URL: "https://pay.example.com/p/123"}
	client := newStore(t, service.Gateways{Link: links})
	shopCart := fillCart(t, client)

	flow := checkout.NewFlow(shopCart, NewLinkCheckout(client), "")
	flow.Enter()

	handle, err := flow.Submit(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, checkout.HandleRedirect, handle.Kind)
	assert.Equal(t, "https://pay.example.com/p/123", handle.Value)
	require.Len(t, links.Requests, 1)
	assert.Equal(t, handle.OrderID, links.Requests[0].ReferenceID)
	assert.Equal(t, shopper.Email, links.Requests[0].Customer.Email)

	order, err := client.GetOrder(context.Background(), handle.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, shopper.Email, order.CustomerEmail)

	// the webhook settles link payments; the client only records the outcome
	_, err = flow.Complete(context.Background(), "success")
	require.NoError(t, err)

	order, err = client.GetOrder(context.Background(), handle.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCheckout_UnconfiguredGatewayKeepsCart(t *testing.T) {
	client := newStore(t, service.Gateways{})
	shopCart := fillCart(t, client)

	flow := checkout.NewFlow(shopCart, NewLinkCheckout(client), "")
	flow.Enter()

	_, err := flow.Submit(context.Background(), shopper)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Equal(t, checkout.StepCollectingInfo, flow.Step())
	assert.False(t, shopCart.IsEmpty())
}
