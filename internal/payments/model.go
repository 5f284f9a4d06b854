package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks a checkout through the processor.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusExpired   Status = "expired"
)

// Payment is one hosted checkout issued to a caller.
type Payment struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	Provider    string
	ProviderRef string
	CheckoutURL string
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// InitiateInput captures a /pay request.
type InitiateInput struct {
	Amount decimal.Decimal
	UserID string
}

// PaymentResponse is the public JSON shape of a payment.
type PaymentResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Provider    string     `json:"provider"`
	CheckoutURL string     `json:"checkout_url"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toResponse(p Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		Amount:      p.Amount.StringFixed(2),
		Currency:    p.Currency,
		Provider:    p.Provider,
		CheckoutURL: p.CheckoutURL,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}
}
