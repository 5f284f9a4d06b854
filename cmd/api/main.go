package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/convo-ai/convo_ai/internal/config"
	"github.com/convo-ai/convo_ai/internal/infra"
	"github.com/convo-ai/convo_ai/internal/logging"
	"github.com/convo-ai/convo_ai/internal/notification"
	"github.com/convo-ai/convo_ai/internal/routes"
	"github.com/convo-ai/convo_ai/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	db, err := infra.OpenDatabase(ctx, cfg.DatabaseURL, cfg.AppName)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}

	var cache *redis.Client
	cache, err = infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName)
	if err != nil {
		if !cfg.IsDev() {
			logger.Error("connect redis", "error", err)
			_ = db.Close()
			os.Exit(1)
		}
		logger.Warn("redis unavailable; idempotency, rate limiting and intent caching are disabled", "error", err)
		cache = nil
	}

	notifiers := notification.Fanout{notification.NewLoggerNotifier(logger)}
	var closers []io.Closer
	if cfg.PostHogAPIKey != "" {
		ph, err := notification.NewPostHogNotifier(cfg.PostHogAPIKey, cfg.PostHogEndpoint)
		if err != nil {
			logger.Warn("posthog disabled", "error", err)
		} else {
			notifiers = append(notifiers, ph)
			closers = append(closers, ph)
		}
	}

	srv, err := server.New(routes.Deps{
		Cfg:      cfg,
		DB:       db,
		Cache:    cache,
		Logger:   logger,
		Notifier: notifiers,
	}, closers...)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	logger.Info("starting server",
		"addr", cfg.Address(),
		"env", cfg.AppEnv,
		"payment_provider", cfg.PaymentProvider,
		"nlu", cfg.NLUURL != "",
	)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
