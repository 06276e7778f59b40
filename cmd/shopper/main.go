// shopper drives a checkout against a running storefront from the terminal.
//
// Usage:
//
//	shopper -items vanilla:2,classic-underwear -email ada@example.com -first Ada -last Lovelace
//	shopper -mode link -items top-vanilla -email ada@example.com -first Ada -last Lovelace
//	shopper -order ORD-1730000000000-K3X9
//
// The payment provider's verdict is simulated with -status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/storeclient"
	"github.com/fjod/storefront/internal/telemetry"
	"go.uber.org/zap"
)

type options struct {
	apiURL        string
	mode          string
	items         string
	order         string
	status        string
	followupPhone string
	timeout       time.Duration
	customer      domain.CustomerInfo
}

func main() {
	var opts options
	flag.StringVar(&opts.apiURL, "api", envOr("STOREFRONT_URL", "http://localhost:5000"), "storefront base URL")
	flag.StringVar(&opts.mode, "mode", "intent", "payment mode: intent or link")
	flag.StringVar(&opts.items, "items", "", "comma-separated product ids, optionally id:quantity")
	flag.StringVar(&opts.order, "order", "", "look up an order by number and exit")
	flag.StringVar(&opts.status, "status", "success", "simulated provider verdict")
	flag.StringVar(&opts.followupPhone, "followup-phone", envOr("FOLLOWUP_PHONE", ""), "WhatsApp number for the follow-up link")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")
	flag.StringVar(&opts.customer.FirstName, "first", "", "customer first name")
	flag.StringVar(&opts.customer.LastName, "last", "", "customer last name")
	flag.StringVar(&opts.customer.Email, "email", "", "customer email")
	flag.StringVar(&opts.customer.Phone, "phone", "", "customer phone")
	flag.Parse()

	logger, err := telemetry.NewLogger("info", true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), opts, logger); err != nil {
		logger.Error("shopper failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	client := storeclient.New(opts.apiURL, opts.timeout)

	if opts.order != "" {
		order, err := client.GetOrder(ctx, opts.order)
		if err != nil {
			return err
		}
		logger.Info("order",
			zap.String("order_number", order.OrderNumber),
			zap.String("status", order.Status.String()),
			zap.String("total", order.Total.StringFixed(2)),
			zap.Int("items", len(order.Items)))
		return nil
	}

	var gateway checkout.Gateway
	switch opts.mode {
	case "intent":
		gateway = storeclient.NewIntentCheckout(client)
	case "link":
		gateway = storeclient.NewLinkCheckout(client)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}

	products, err := client.Products(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	shopCart := cart.New()
	if err := fillCart(shopCart, products, opts.items); err != nil {
		return err
	}
	logger.Info("cart ready",
		zap.Int("item_count", shopCart.ItemCount()),
		zap.String("total", shopCart.Total().StringFixed(2)))

	flow := checkout.NewFlow(shopCart, gateway, opts.followupPhone)
	if flow.Enter() != checkout.StepCollectingInfo {
		return checkout.ErrEmptyCart
	}

	handle, err := flow.Submit(ctx, opts.customer)
	if err != nil {
		return fmt.Errorf("submit checkout: %w", err)
	}
	switch handle.Kind {
	case checkout.HandleRedirect:
		logger.Info("open the payment page", zap.String("url", handle.Value), zap.String("order_number", handle.OrderNumber))
	default:
		logger.Info("payment intent created", zap.String("order_number", handle.OrderNumber))
	}

	confirmation, err := flow.Complete(ctx, opts.status)
	if err != nil {
		if errors.Is(err, checkout.ErrPaymentNotCompleted) {
			logger.Warn("payment not completed", zap.String("reason", flow.LastError()))
			return nil
		}
		return fmt.Errorf("complete checkout: %w", err)
	}

	logger.Info("order placed",
		zap.String("order_number", confirmation.OrderNumber),
		zap.String("followup_url", confirmation.FollowupURL))
	return nil
}

// fillCart adds "id" or "id:qty" entries, rejecting ids the catalog lacks.
func fillCart(c *cart.Cart, products []domain.Product, list string) error {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, qty := entry, 1
		if i := strings.IndexByte(entry, ':'); i >= 0 {
			n, err := strconv.Atoi(entry[i+1:])
			if err != nil {
				return fmt.Errorf("bad quantity in %q: %w", entry, err)
			}
			id, qty = entry[:i], n
		}

		p, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: product %q", domain.ErrNotFound, id)
		}
		c.Add(p)
		if qty != 1 {
			c.SetQuantity(id, qty)
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
