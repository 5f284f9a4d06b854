package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Gateway is the connector to an external hosted-checkout processor.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error)
	ParseEvent(payload []byte, signature string) (Event, error)
}

// CheckoutRequest describes the session to open with the processor.
type CheckoutRequest struct {
	PaymentID string
	UserID    string
	Amount    decimal.Decimal
	Currency  string
}

// Checkout is the processor's answer: where to send the payer.
type Checkout struct {
	ProviderRef string
	URL         string
}

// EventType classifies processor webhooks the service reacts to.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventCheckoutExpired   EventType = "checkout.session.expired"
	EventIgnored           EventType = "ignored"
)

// Event is a verified webhook reduced to what the service needs.
type Event struct {
	ID          string
	Type        EventType
	PaymentID   string
	ProviderRef string
}

// minorUnits converts a 2-decimal amount to cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
