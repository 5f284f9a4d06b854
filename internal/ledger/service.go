package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/convo-ai/convo_ai/internal/notification"
	"github.com/convo-ai/convo_ai/internal/users"
)

// ErrMissingReason rejects adjustments without an explanation.
var ErrMissingReason = errors.New("reason is required")

// AdjustInput is a manual balance correction requested by an administrator.
type AdjustInput struct {
	UserID    string
	Amount    decimal.Decimal
	Reason    string
	Reference string
}

// Service exposes administrator operations over the ledger.
type Service struct {
	ledger   Ledger
	users    *users.Service
	notifier notification.Notifier
}

func NewService(ledger Ledger, users *users.Service, notifier notification.Notifier) *Service {
	return &Service{ledger: ledger, users: users, notifier: notifier}
}

// Adjust posts a signed adjustment. A repeated reference returns the original
// entry with ErrDuplicateTransaction.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (Entry, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return Entry{}, ErrMissingReason
	}
	if in.Amount.Round(2).IsZero() {
		return Entry{}, ErrInvalidAmount
	}
	if _, err := s.users.Get(ctx, in.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Entry{}, ErrAccountNotFound
		}
		return Entry{}, err
	}

	ref := strings.TrimSpace(in.Reference)
	if ref != "" {
		ref = KindAdjustment + ":" + ref
	}
	entry, err := s.ledger.Post(ctx, Posting{
		UserID:      in.UserID,
		Reference:   ref,
		Kind:        KindAdjustment,
		Description: reason,
		Amount:      in.Amount,
	})
	if err != nil {
		return entry, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindBalanceAdjusted,
			Destination: entry.UserID,
			Body:        reason,
			Properties: map[string]any{
				"entry_id":      entry.ID,
				"amount":        entry.Amount.StringFixed(2),
				"balance_after": entry.BalanceAfter.StringFixed(2),
			},
		})
	}
	return entry, nil
}

// History lists a registered user's entries.
func (s *Service) History(ctx context.Context, userID string) ([]Entry, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.ledger.Entries(ctx, userID)
}
