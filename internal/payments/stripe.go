package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

const stripeSignatureHeader = "Stripe-Signature"

// StripeConfig configures the Stripe Checkout gateway.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	ProductName   string
	// Backend overrides the API endpoint; nil uses api.stripe.com.
	Backend stripe.Backend
}

// StripeGateway opens Stripe Checkout Sessions in payment mode.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	productName   string
}

// NewStripeGateway builds a gateway with its own API client rather than the package-level key.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	var backends *stripe.Backends
	if cfg.Backend != nil {
		backends = &stripe.Backends{API: cfg.Backend, Connect: cfg.Backend, Uploads: cfg.Backend}
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	product := cfg.ProductName
	if product == "" {
		product = "Account credit"
	}
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		productName:   product,
	}
}

// Name identifies the provider on stored payments.
func (g *StripeGateway) Name() string { return "stripe" }

// CreateCheckout opens a single line item session for the requested amount.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.PaymentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(g.productName),
					},
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("payment_id", req.PaymentID)
	if req.UserID != "" {
		params.AddMetadata("user_id", req.UserID)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("create checkout session: %w", err)
	}
	if sess.URL == "" {
		return Checkout{}, fmt.Errorf("checkout session %s has no url", sess.ID)
	}
	return Checkout{ProviderRef: sess.ID, URL: sess.URL}, nil
}

// ParseEvent verifies the Stripe-Signature header and maps checkout events.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (Event, error) {
	if g.webhookSecret == "" {
		return Event{}, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{ID: event.ID, Type: EventIgnored}
	switch EventType(event.Type) {
	case EventCheckoutCompleted, EventCheckoutExpired:
	default:
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return Event{}, fmt.Errorf("decode checkout session: %w", err)
	}
	out.Type = EventType(event.Type)
	out.ProviderRef = sess.ID
	out.PaymentID = sess.ClientReferenceID
	if out.PaymentID == "" {
		out.PaymentID = sess.Metadata["payment_id"]
	}
	return out, nil
}
