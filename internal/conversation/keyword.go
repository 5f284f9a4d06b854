package conversation

import (
	"context"
	"slices"
	"strings"
	"unicode"
)

// defaultKeywords is the small pretrained vocabulary used when no NLU server is configured.
var defaultKeywords = map[string][]string{
	"greet":         {"hello", "hi", "hey", "hola", "morning", "evening"},
	"goodbye":       {"bye", "goodbye", "later", "cya"},
	"check_balance": {"balance", "credit", "credits", "funds"},
	"top_up":        {"pay", "payment", "refill", "topup", "top-up", "deposit", "recharge"},
	"help":          {"help", "support", "assist", "how"},
}

// KeywordClassifier scores messages against per-intent keyword lists.
type KeywordClassifier struct {
	keywords map[string][]string
	order    []string
}

// NewKeywordClassifier builds a classifier from intent -> keywords. A nil map uses the built-in vocabulary.
func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	if keywords == nil {
		keywords = defaultKeywords
	}
	order := make([]string, 0, len(keywords))
	for intent := range keywords {
		order = append(order, intent)
	}
	// ties resolve alphabetically so results are stable across runs
	slices.Sort(order)
	return &KeywordClassifier{keywords: keywords, order: order}
}

// Classify picks the intent with the most keyword hits.
func (k *KeywordClassifier) Classify(_ context.Context, text string) (Intent, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Intent{Name: UnknownIntent}, nil
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}

	best, bestHits := "", 0
	for _, intent := range k.order {
		hits := 0
		for _, kw := range k.keywords[intent] {
			if _, ok := seen[kw]; ok {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = intent, hits
		}
	}
	if bestHits == 0 {
		return Intent{Name: UnknownIntent}, nil
	}
	return Intent{Name: best, Confidence: float64(bestHits) / float64(len(seen))}, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}
