// Package payment adapts the upstream payment providers: Stripe payment intents
// confirmed in-page, and Payflowly hosted payment links confirmed by webhook.
package payment

import (
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

// GatewayError is returned for every upstream failure, including responses the
// link parser cannot make sense of. errors.Is(err, domain.ErrGateway) holds for it.
type GatewayError struct {
	Provider   string
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	switch {
	case e.Timeout:
		msg += ": upstream timed out"
	case e.StatusCode != 0:
		msg += fmt.Sprintf(": upstream returned status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrGateway}
	}
	return []error{domain.ErrGateway, e.Err}
}
