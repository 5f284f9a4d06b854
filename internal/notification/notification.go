package notification

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"
)

const (
	// KindUserRegistered is emitted after a successful registration.
	KindUserRegistered = "user_registered"
	// KindChatMessage is emitted for every classified chat message.
	KindChatMessage = "chat_message"
	// KindPaymentInitiated is emitted once a checkout URL has been issued.
	KindPaymentInitiated = "payment_initiated"
	// KindPaymentSucceeded is emitted when the processor confirms a checkout.
	KindPaymentSucceeded = "payment_succeeded"
	// KindPaymentExpired is emitted when a checkout lapses unpaid.
	KindPaymentExpired = "payment_expired"
	// KindBalanceAdjusted is emitted for manual balance adjustments.
	KindBalanceAdjusted = "balance_adjusted"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
	Properties  map[string]any
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("body", message.Body),
	}
	for k, v := range message.Properties {
		attrs = append(attrs, slog.Any(k, v))
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}

// Fanout delivers each message to every wrapped notifier and combines their errors.
type Fanout []Notifier

// Send forwards the message to all notifiers, continuing past failures.
func (f Fanout) Send(ctx context.Context, message Message) error {
	var err error
	for _, n := range f {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, message))
	}
	return err
}
