package notification

import (
	"context"

	"github.com/posthog/posthog-go"
)

// PostHogNotifier forwards notifications as PostHog product analytics events.
type PostHogNotifier struct {
	client posthog.Client
}

// NewPostHogNotifier connects to PostHog. An empty endpoint uses the PostHog cloud default.
func NewPostHogNotifier(apiKey, endpoint string) (*PostHogNotifier, error) {
	cfg := posthog.Config{}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	client, err := posthog.NewWithConfig(apiKey, cfg)
	if err != nil {
		return nil, err
	}
	return &PostHogNotifier{client: client}, nil
}

// Send enqueues the message. Delivery happens in the client's background batcher.
func (n *PostHogNotifier) Send(_ context.Context, message Message) error {
	props := posthog.NewProperties()
	if message.Body != "" {
		props.Set("body", message.Body)
	}
	for k, v := range message.Properties {
		props.Set(k, v)
	}

	distinctID := message.Destination
	if distinctID == "" {
		distinctID = "anonymous"
	}

	capture := posthog.Capture{
		DistinctId: distinctID,
		Event:      message.Kind,
		Properties: props,
	}
	if err := capture.Validate(); err != nil {
		return err
	}
	return n.client.Enqueue(capture)
}

// Close flushes queued events and stops the client.
func (n *PostHogNotifier) Close() error {
	if n == nil || n.client == nil {
		return nil
	}
	return n.client.Close()
}
