package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateTransaction indicates the posting reference was already applied
	// and the operation should be treated as idempotent.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountNotFound occurs when the posting targets an unknown user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount rejects zero-value postings.
	ErrInvalidAmount = errors.New("amount must be non-zero")
)

const (
	// KindTopUp credits funds collected through a completed checkout.
	KindTopUp = "top_up"
	// KindAdjustment is a manual correction made by an administrator.
	KindAdjustment = "adjustment"
)

// Posting describes a signed balance change for one user.
type Posting struct {
	UserID      string
	Reference   string
	Kind        string
	Description string
	Amount      decimal.Decimal
}

// Entry is an applied posting together with the resulting balance.
type Entry struct {
	ID           string
	UserID       string
	Reference    string
	Kind         string
	Description  string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	CreatedAt    time.Time
}

// Ledger defines the contract implemented by ledger backends.
type Ledger interface {
	// Post applies the posting once per reference. A repeated reference returns
	// the original entry together with ErrDuplicateTransaction.
	Post(ctx context.Context, posting Posting) (Entry, error)
	Entries(ctx context.Context, userID string) ([]Entry, error)
}
