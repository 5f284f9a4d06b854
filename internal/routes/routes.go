package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/convo-ai/convo_ai/internal/auth"
	"github.com/convo-ai/convo_ai/internal/config"
	"github.com/convo-ai/convo_ai/internal/conversation"
	"github.com/convo-ai/convo_ai/internal/infra"
	"github.com/convo-ai/convo_ai/internal/ledger"
	"github.com/convo-ai/convo_ai/internal/middleware"
	"github.com/convo-ai/convo_ai/internal/notification"
	"github.com/convo-ai/convo_ai/internal/payments"
	"github.com/convo-ai/convo_ai/internal/users"
)

// Deps aggregates shared dependencies required to wire routes. Gateway and
// Classifier are built from Cfg when nil.
type Deps struct {
	Cfg        config.Config
	DB         *infra.Database
	Cache      *redis.Client
	Logger     *slog.Logger
	Notifier   notification.Notifier
	Gateway    payments.Gateway
	Classifier conversation.Classifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.DB == nil || d.DB.ORM == nil {
		return fmt.Errorf("database is required")
	}
	if !d.Cfg.IsDev() {
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cfg.AdminJWTSecret == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Notifier == nil {
		d.Notifier = notification.NewLoggerNotifier(d.Logger)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cfg.CORSAllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: d.Cfg.CORSAllowOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		}))
	}

	RegisterHealthRoutes(app, d)

	db := d.DB.ORM
	userRepo := users.NewGormRepository(db)
	ledgerBackend := ledger.NewGormLedger(db)
	paymentRepo := payments.NewGormRepository(db)

	if d.Cfg.AutoMigrate {
		ctx := context.Background()
		for _, migrate := range []func(context.Context) error{
			userRepo.AutoMigrate,
			ledgerBackend.AutoMigrate,
			paymentRepo.AutoMigrate,
		} {
			if err := migrate(ctx); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
	}

	userSvc := users.NewService(userRepo, d.Notifier)

	gateway := d.Gateway
	if gateway == nil {
		gateway = NewGateway(d.Cfg)
	}
	paymentSvc, err := payments.NewService(payments.Options{
		Repository: paymentRepo,
		Gateway:    gateway,
		Users:      userSvc,
		Ledger:     ledgerBackend,
		Notifier:   d.Notifier,
		Currency:   d.Cfg.PaymentCurrency,
		Logger:     d.Logger,
	})
	if err != nil {
		return err
	}

	classifier := d.Classifier
	if classifier == nil {
		classifier = NewClassifier(d.Cfg)
	}
	classifier = conversation.NewCachedClassifier(classifier, d.Cache, d.Cfg.IntentCacheTTL, d.Logger)
	chatSvc := conversation.NewService(classifier, d.Notifier)

	authSvc := auth.NewService(d.Cfg.AdminJWTSecret, d.Cfg.AdminAPIKeyHash, d.Cfg.AdminTokenTTL)
	if d.Cfg.AdminJWTSecret == "" {
		d.Logger.Warn("admin routes are unauthenticated; set ADMIN_JWT_SECRET to protect them")
	}

	RegisterChatRoutes(app, conversation.NewHandler(chatSvc), middleware.RateLimit(d.Cache, "chat", d.Cfg.ChatRateLimit, d.Logger))
	RegisterUserRoutes(app, users.NewHandler(userSvc))
	RegisterPaymentRoutes(app, payments.NewHandler(paymentSvc), middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	RegisterAdminRoutes(app,
		auth.NewHandler(authSvc),
		middleware.RateLimit(d.Cache, "admin_token", d.Cfg.TokenRateLimit, d.Logger),
		middleware.AdminOnly(d.Cfg.AdminJWTSecret),
		users.NewHandler(userSvc),
		ledger.NewHandler(ledger.NewService(ledgerBackend, userSvc, d.Notifier)),
	)

	return nil
}

// NewGateway selects the payment gateway named by PAYMENT_PROVIDER.
func NewGateway(cfg config.Config) payments.Gateway {
	if cfg.PaymentProvider == config.ProviderStripe {
		return payments.NewStripeGateway(payments.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.CheckoutSuccessURL,
			CancelURL:     cfg.CheckoutCancelURL,
			ProductName:   cfg.AppName + " credit",
		})
	}
	return payments.NewStaticGateway(cfg.StaticCheckoutBaseURL)
}

// NewClassifier uses the NLU server when NLU_URL is set and the keyword model otherwise.
func NewClassifier(cfg config.Config) conversation.Classifier {
	if cfg.NLUURL != "" {
		return conversation.NewRasaClassifier(cfg.NLUURL, cfg.NLUTimeout, cfg.NLUConfidenceThreshold)
	}
	return conversation.NewKeywordClassifier(nil)
}
