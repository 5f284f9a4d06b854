package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/convo-ai/convo_ai/internal/ledger"
	"github.com/convo-ai/convo_ai/internal/logging"
	"github.com/convo-ai/convo_ai/internal/notification"
)

var (
	// ErrInvalidAmount rejects non-positive or missing amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrUnknownUser indicates the user_id does not name a registered user.
	ErrUnknownUser = errors.New("user not found")
	// ErrGatewayFailure wraps any processor error while opening a checkout.
	ErrGatewayFailure = errors.New("payment creation failed")
	// ErrNotFound indicates no payment exists for the identifier.
	ErrNotFound = errors.New("payment not found")
)

// UserDirectory answers whether a user id is registered.
type UserDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service relays checkout requests to the gateway and settles them from webhooks.
type Service struct {
	repo     Repository
	gateway  Gateway
	users    UserDirectory
	ledger   ledger.Ledger
	notifier notification.Notifier
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

// Options carries the collaborators of a payment service.
type Options struct {
	Repository Repository
	Gateway    Gateway
	Users      UserDirectory
	Ledger     ledger.Ledger
	Notifier   notification.Notifier
	Currency   string
	Logger     *slog.Logger
}

// NewService constructs a payment service. Notifier and Logger may be nil.
func NewService(opts Options) (*Service, error) {
	if opts.Repository == nil || opts.Gateway == nil || opts.Ledger == nil {
		return nil, fmt.Errorf("payments: repository, gateway and ledger are required")
	}
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "usd"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:     opts.Repository,
		gateway:  opts.Gateway,
		users:    opts.Users,
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		currency: currency,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Initiate opens a hosted checkout for the amount and records it as pending.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (Payment, error) {
	amount := input.Amount.Round(2)
	if !amount.IsPositive() {
		return Payment{}, ErrInvalidAmount
	}

	userID := strings.TrimSpace(input.UserID)
	if userID != "" && s.users != nil {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return Payment{}, fmt.Errorf("lookup user: %w", err)
		}
		if !ok {
			return Payment{}, ErrUnknownUser
		}
	}

	payment := Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Currency:  s.currency,
		Provider:  s.gateway.Name(),
		Status:    StatusPending,
		CreatedAt: s.now(),
	}

	checkout, err := s.gateway.CreateCheckout(ctx, CheckoutRequest{
		PaymentID: payment.ID,
		UserID:    userID,
		Amount:    amount,
		Currency:  s.currency,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "checkout creation failed",
			slog.String("payment_id", payment.ID),
			slog.String("provider", payment.Provider),
			slog.Any("error", err))
		return Payment{}, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	if checkout.URL == "" {
		return Payment{}, fmt.Errorf("%w: empty checkout url", ErrGatewayFailure)
	}
	payment.ProviderRef = checkout.ProviderRef
	payment.CheckoutURL = checkout.URL

	if err := s.repo.Create(ctx, payment); err != nil {
		return Payment{}, fmt.Errorf("store payment: %w", err)
	}

	s.notify(ctx, notification.KindPaymentInitiated, payment)
	return payment, nil
}

// Get fetches one payment.
func (s *Service) Get(ctx context.Context, id string) (Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Payment{}, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// HandleWebhook verifies and applies a processor event. Unknown events and
// events for unknown payments are acknowledged without changes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	if event.Type == EventIgnored {
		s.logger.DebugContext(ctx, "webhook ignored", slog.String("event_id", event.ID))
		return nil
	}

	payment, err := s.resolve(ctx, event)
	if errors.Is(err, ErrNotFound) {
		s.logger.WarnContext(ctx, "webhook for unknown payment",
			slog.String("event_id", event.ID),
			slog.String("payment_id", event.PaymentID),
			slog.String("provider_ref", event.ProviderRef))
		return nil
	}
	if err != nil {
		return err
	}

	switch event.Type {
	case EventCheckoutCompleted:
		_, err = s.Complete(ctx, payment.ID)
	case EventCheckoutExpired:
		_, err = s.Expire(ctx, payment.ID)
	}
	return err
}

func (s *Service) resolve(ctx context.Context, event Event) (Payment, error) {
	if event.PaymentID != "" {
		if _, err := uuid.Parse(event.PaymentID); err == nil {
			p, err := s.repo.FindByID(ctx, event.PaymentID)
			if !errors.Is(err, ErrNotFound) {
				return p, err
			}
		}
	}
	if event.ProviderRef != "" {
		return s.repo.FindByProviderRef(ctx, event.ProviderRef)
	}
	return Payment{}, ErrNotFound
}

// Complete marks the payment succeeded and credits its user once.
func (s *Service) Complete(ctx context.Context, id string) (Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.Status == StatusSucceeded {
		return payment, nil
	}

	if payment.UserID != "" {
		_, err := s.ledger.Post(ctx, ledger.Posting{
			UserID:      payment.UserID,
			Reference:   "payment:" + payment.ID,
			Kind:        ledger.KindTopUp,
			Description: fmt.Sprintf("%s checkout %s", payment.Provider, payment.ProviderRef),
			Amount:      payment.Amount,
		})
		if err != nil && !errors.Is(err, ledger.ErrDuplicateTransaction) {
			return Payment{}, fmt.Errorf("credit balance: %w", err)
		}
	}

	moved, err := s.repo.Transition(ctx, payment.ID, payment.Status, StatusSucceeded, s.now())
	if err != nil {
		return Payment{}, fmt.Errorf("mark payment succeeded: %w", err)
	}
	updated, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return Payment{}, err
	}
	if moved {
		s.notify(ctx, notification.KindPaymentSucceeded, updated)
	}
	return updated, nil
}

// Expire marks a pending payment expired. Settled payments are left untouched.
func (s *Service) Expire(ctx context.Context, id string) (Payment, error) {
	payment, err := s.Get(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if payment.Status != StatusPending {
		return payment, nil
	}
	moved, err := s.repo.Transition(ctx, payment.ID, StatusPending, StatusExpired, s.now())
	if err != nil {
		return Payment{}, fmt.Errorf("mark payment expired: %w", err)
	}
	if moved {
		payment.Status = StatusExpired
		s.notify(ctx, notification.KindPaymentExpired, payment)
	}
	return payment, nil
}

func (s *Service) notify(ctx context.Context, kind string, p Payment) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        kind,
		Destination: p.UserID,
		Properties: map[string]any{
			"payment_id": p.ID,
			"amount":     p.Amount.StringFixed(2),
			"currency":   p.Currency,
			"provider":   p.Provider,
		},
	})
}
