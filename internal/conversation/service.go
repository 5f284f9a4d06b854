package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/convo-ai/convo_ai/internal/notification"
)

const responseTemplate = "Intent recognized: %s"

// ErrEmptyMessage rejects blank chat input.
var ErrEmptyMessage = errors.New("message is required")

// Reply is the relay's answer to one message.
type Reply struct {
	Intent     string
	Confidence float64
	Response   string
}

// Service relays chat messages to the classifier. It keeps no session state.
type Service struct {
	classifier Classifier
	notifier   notification.Notifier
}

// NewService builds a conversation relay. The notifier may be nil.
func NewService(classifier Classifier, notifier notification.Notifier) *Service {
	return &Service{classifier: classifier, notifier: notifier}
}

// Reply classifies the message and wraps the label in the response sentence.
func (s *Service) Reply(ctx context.Context, message string) (Reply, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	intent, err := s.classifier.Classify(ctx, text)
	if err != nil {
		return Reply{}, fmt.Errorf("classify message: %w", err)
	}
	if intent.Unknown() {
		intent.Name = UnknownIntent
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind: notification.KindChatMessage,
			Properties: map[string]any{
				"intent":     intent.Name,
				"confidence": intent.Confidence,
			},
		})
	}

	return Reply{
		Intent:     intent.Name,
		Confidence: intent.Confidence,
		Response:   fmt.Sprintf(responseTemplate, intent.Name),
	}, nil
}
