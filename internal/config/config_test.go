package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "DATABASE_URL", "REDIS_URL", "PORT", "PAYMENT_PROVIDER",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "ADMIN_JWT_SECRET", "ADMIN_API_KEY_HASH",
		shutdownSecondsEnvVar, shutdownDurationEnvVar, idemTTLSecondsEnvVar, idemTTLDurEnvVar,
		"CHAT_RATE_LIMIT", "ADMIN_TOKEN_RATE_LIMIT", "NLU_CONFIDENCE_THRESHOLD", "AUTO_MIGRATE", "INTENT_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, defaultDevDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, defaultRedisURL, cfg.RedisURL)
	assert.Equal(t, ProviderStatic, cfg.PaymentProvider)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, defaultShutdownDelay, cfg.ShutdownPeriod)
	assert.Equal(t, defaultChatRateLimit, cfg.ChatRateLimit)
	assert.Equal(t, defaultTokenRateLimit, cfg.TokenRateLimit)
	assert.True(t, cfg.AutoMigrate)
}

func TestLoadProductionRequiresDatabaseAndAdmin(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/convo")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_JWT_SECRET")

	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, ProviderStripe, cfg.PaymentProvider)
}

func TestLoadProductionRejectsStaticGateway(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/convo")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_PROVIDER=static")

	t.Setenv("PAYMENT_PROVIDER", "static")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_PROVIDER=static")
}

func TestLoadStripeSelectedBySecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderStripe, cfg.PaymentProvider)
}

func TestLoadRejectsStripeWithoutSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("PAYMENT_PROVIDER", "stripe")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsStripeWithoutWebhookSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_WEBHOOK_SECRET")
}

func TestLoadParsesDurationsAndNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv(shutdownSecondsEnvVar, "3")
	t.Setenv(idemTTLDurEnvVar, "90m")
	t.Setenv("INTENT_CACHE_TTL", "30s")
	t.Setenv("CHAT_RATE_LIMIT", "0")
	t.Setenv("ADMIN_TOKEN_RATE_LIMIT", "3")
	t.Setenv("NLU_CONFIDENCE_THRESHOLD", "0.4")
	t.Setenv("PORT", ":9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, 90*time.Minute, cfg.IdempotencyTTL)
	assert.Equal(t, 30*time.Second, cfg.IntentCacheTTL)
	assert.Equal(t, 0, cfg.ChatRateLimit)
	assert.Equal(t, 3, cfg.TokenRateLimit)
	assert.InDelta(t, 0.4, cfg.NLUConfidenceThreshold, 1e-9)
	assert.Equal(t, ":9000", cfg.Address())
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]string{
		shutdownSecondsEnvVar:      "soon",
		idemTTLDurEnvVar:           "forever",
		"CHAT_RATE_LIMIT":          "lots",
		"ADMIN_TOKEN_RATE_LIMIT":   "many",
		"NLU_CONFIDENCE_THRESHOLD": "high",
		"AUTO_MIGRATE":             "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}
