package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	rasaParsePath    = "/model/parse"
	rasaFallbackName = "nlu_fallback"
)

// ErrClassifierUnavailable wraps transport or protocol failures talking to the NLU server.
var ErrClassifierUnavailable = errors.New("intent classifier unavailable")

// RasaClassifier queries a Rasa-compatible NLU HTTP server.
type RasaClassifier struct {
	baseURL   string
	timeout   time.Duration
	threshold float64
}

// NewRasaClassifier builds a client for the server at baseURL. Predictions
// below threshold are reported as Unknown.
func NewRasaClassifier(baseURL string, timeout time.Duration, threshold float64) *RasaClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RasaClassifier{baseURL: baseURL, timeout: timeout, threshold: threshold}
}

type rasaParseRequest struct {
	Text string `json:"text"`
}

type rasaParseResponse struct {
	Text   string `json:"text"`
	Intent struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
}

// Classify posts the message to /model/parse and maps the top intent.
func (r *RasaClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Intent{}, fmt.Errorf("%w: %w", ErrClassifierUnavailable, ctx.Err())
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(r.baseURL + rasaParsePath)
	agent.JSON(rasaParseRequest{Text: text})
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Intent{}, fmt.Errorf("%w: %v", ErrClassifierUnavailable, errors.Join(errs...))
	}
	if code != http.StatusOK {
		return Intent{}, fmt.Errorf("%w: status %d", ErrClassifierUnavailable, code)
	}

	var parsed rasaParseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Intent{}, fmt.Errorf("%w: decode response: %v", ErrClassifierUnavailable, err)
	}

	name := parsed.Intent.Name
	if name == "" || name == rasaFallbackName || parsed.Intent.Confidence < r.threshold {
		return Intent{Name: UnknownIntent, Confidence: parsed.Intent.Confidence}, nil
	}
	return Intent{Name: name, Confidence: parsed.Intent.Confidence}, nil
}
