package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// StaticGateway issues local checkout URLs for development and tests.
// Its webhook events are unsigned JSON documents.
type StaticGateway struct {
	baseURL string
}

// NewStaticGateway builds a gateway rooted at baseURL.
func NewStaticGateway(baseURL string) *StaticGateway {
	return &StaticGateway{baseURL: strings.TrimRight(baseURL, "/")}
}

// Name identifies the provider on stored payments.
func (g *StaticGateway) Name() string { return "static" }

// CreateCheckout returns <base>/checkout/<payment id>.
func (g *StaticGateway) CreateCheckout(_ context.Context, req CheckoutRequest) (Checkout, error) {
	if req.PaymentID == "" {
		return Checkout{}, fmt.Errorf("payment id is required")
	}
	return Checkout{
		ProviderRef: "static_" + req.PaymentID,
		URL:         fmt.Sprintf("%s/checkout/%s", g.baseURL, req.PaymentID),
	}, nil
}

type staticEvent struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	PaymentID string `json:"payment_id"`
}

// ParseEvent decodes {"id","type","payment_id"}; the signature is ignored.
func (g *StaticGateway) ParseEvent(payload []byte, _ string) (Event, error) {
	var raw staticEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	evt := Event{ID: raw.ID, PaymentID: raw.PaymentID, ProviderRef: "static_" + raw.PaymentID}
	switch EventType(raw.Type) {
	case EventCheckoutCompleted, EventCheckoutExpired:
		evt.Type = EventType(raw.Type)
	default:
		evt.Type = EventIgnored
	}
	return evt, nil
}
