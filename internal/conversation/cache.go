package conversation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const intentCachePrefix = "intent:v1:"

// CachedClassifier memoises classifications in Redis for a fixed TTL.
type CachedClassifier struct {
	next   Classifier
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedClassifier wraps next with a Redis-backed cache. A nil cache disables caching.
func NewCachedClassifier(next Classifier, cache *redis.Client, ttl time.Duration, logger *slog.Logger) Classifier {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &CachedClassifier{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Classify serves from cache when possible; cache errors fall through to the wrapped classifier.
func (c *CachedClassifier) Classify(ctx context.Context, text string) (Intent, error) {
	key := cacheKey(text)

	lookupCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	cached, err := c.cache.Get(lookupCtx, key).Bytes()
	cancel()
	if err == nil {
		var intent Intent
		if jsonErr := json.Unmarshal(cached, &intent); jsonErr == nil {
			return intent, nil
		}
	} else if err != redis.Nil && c.logger != nil {
		c.logger.Warn("intent cache lookup failed", slog.Any("error", err))
	}

	intent, err := c.next.Classify(ctx, text)
	if err != nil {
		return Intent{}, err
	}

	if payload, err := json.Marshal(intent); err == nil {
		storeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.cache.Set(storeCtx, key, payload, c.ttl).Err(); err != nil && c.logger != nil {
			c.logger.Warn("intent cache store failed", slog.Any("error", err))
		}
		cancel()
	}
	return intent, nil
}

func cacheKey(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return intentCachePrefix + hex.EncodeToString(sum[:])
}
