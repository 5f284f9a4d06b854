package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "ConvoAI"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultDevDatabaseURL = "file:convo.db?cache=shared"
	defaultRedisURL       = "redis://localhost:6379/0"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultIntentCacheTTL = 10 * time.Minute
	defaultNLUTimeout     = 5 * time.Second
	defaultAdminTokenTTL  = time.Hour
	defaultChatRateLimit  = 60
	defaultTokenRateLimit = 10
	defaultCurrency       = "usd"
	defaultSuccessURL     = "https://example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}"
	defaultCancelURL      = "https://example.com/checkout/cancel"
	defaultStaticBaseURL  = "http://localhost:8080"

	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"

	// ProviderStripe selects the Stripe Checkout gateway.
	ProviderStripe = "stripe"
	// ProviderStatic selects the local development gateway.
	ProviderStatic = "static"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName     string
	AppEnv      string
	Port        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	RedisURL    string
	AutoMigrate bool

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	IntentCacheTTL time.Duration
	ChatRateLimit  int
	// TokenRateLimit caps POST /admin/token attempts per IP per minute.
	TokenRateLimit int

	NLUURL                 string
	NLUTimeout             time.Duration
	NLUConfidenceThreshold float64

	PaymentProvider       string
	PaymentCurrency       string
	StripeSecretKey       string
	StripeWebhookSecret   string
	CheckoutSuccessURL    string
	CheckoutCancelURL     string
	StaticCheckoutBaseURL string

	AdminJWTSecret  string
	AdminAPIKeyHash string
	AdminTokenTTL   time.Duration

	PostHogAPIKey   string
	PostHogEndpoint string

	CORSAllowOrigins string
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:               getEnv("APP_NAME", defaultAppName),
		AppEnv:                strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                  getEnv("PORT", defaultPort),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:             strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              getEnv("REDIS_URL", defaultRedisURL),
		AutoMigrate:           true,
		ShutdownPeriod:        defaultShutdownDelay,
		IdempotencyTTL:        defaultIdempotencyTTL,
		IntentCacheTTL:        defaultIntentCacheTTL,
		ChatRateLimit:         defaultChatRateLimit,
		TokenRateLimit:        defaultTokenRateLimit,
		NLUURL:                strings.TrimRight(os.Getenv("NLU_URL"), "/"),
		NLUTimeout:            defaultNLUTimeout,
		PaymentCurrency:       strings.ToLower(getEnv("PAYMENT_CURRENCY", defaultCurrency)),
		StripeSecretKey:       os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", defaultSuccessURL),
		CheckoutCancelURL:     getEnv("CHECKOUT_CANCEL_URL", defaultCancelURL),
		StaticCheckoutBaseURL: strings.TrimRight(getEnv("STATIC_CHECKOUT_BASE_URL", defaultStaticBaseURL), "/"),
		AdminJWTSecret:        os.Getenv("ADMIN_JWT_SECRET"),
		AdminAPIKeyHash:       os.Getenv("ADMIN_API_KEY_HASH"),
		AdminTokenTTL:         defaultAdminTokenTTL,
		PostHogAPIKey:         os.Getenv("POSTHOG_API_KEY"),
		PostHogEndpoint:       os.Getenv("POSTHOG_ENDPOINT"),
		CORSAllowOrigins:      getEnv("CORS_ALLOW_ORIGINS", "*"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.IntentCacheTTL, err = durationFromEnv("", "INTENT_CACHE_TTL", cfg.IntentCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.NLUTimeout, err = durationFromEnv("", "NLU_TIMEOUT", cfg.NLUTimeout); err != nil {
		return Config{}, err
	}
	if cfg.AdminTokenTTL, err = durationFromEnv("", "ADMIN_TOKEN_TTL", cfg.AdminTokenTTL); err != nil {
		return Config{}, err
	}

	if cfg.ChatRateLimit, err = intFromEnv("CHAT_RATE_LIMIT", cfg.ChatRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.TokenRateLimit, err = intFromEnv("ADMIN_TOKEN_RATE_LIMIT", cfg.TokenRateLimit); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("NLU_CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NLU_CONFIDENCE_THRESHOLD: %w", err)
		}
		cfg.NLUConfidenceThreshold = f
	}

	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = b
	}

	cfg.PaymentProvider = strings.ToLower(os.Getenv("PAYMENT_PROVIDER"))
	if cfg.PaymentProvider == "" {
		cfg.PaymentProvider = ProviderStatic
		if cfg.StripeSecretKey != "" {
			cfg.PaymentProvider = ProviderStripe
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsDev() {
		// Development falls back to a local SQLite file.
		if c.DatabaseURL == "" {
			c.DatabaseURL = defaultDevDatabaseURL
		}
	} else {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.AppEnv)
		}
		if c.AdminJWTSecret == "" || c.AdminAPIKeyHash == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET and ADMIN_API_KEY_HASH must be set when APP_ENV=%s", c.AppEnv)
		}
	}

	switch c.PaymentProvider {
	case ProviderStripe:
		if c.StripeSecretKey == "" || c.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET must be set when PAYMENT_PROVIDER=%s", ProviderStripe)
		}
	case ProviderStatic:
		// Static webhooks are unsigned.
		if !c.IsDev() {
			return fmt.Errorf("PAYMENT_PROVIDER=%s is not allowed when APP_ENV=%s", ProviderStatic, c.AppEnv)
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
	return nil
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if secondsVar != "" {
		if v := os.Getenv(secondsVar); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
