package conversation

import "context"

// UnknownIntent labels messages no intent could be matched for.
const UnknownIntent = "Unknown"

// Intent is the label an NLU model assigned to a message.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Unknown reports whether the intent is the fallback label.
func (i Intent) Unknown() bool {
	return i.Name == "" || i.Name == UnknownIntent
}

// Classifier maps free text to an intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, error)
}
