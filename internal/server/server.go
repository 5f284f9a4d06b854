package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"

	"github.com/convo-ai/convo_ai/internal/routes"
)

// Server wraps the Fiber application and the resources it owns.
type Server struct {
	app     *fiber.App
	deps    routes.Deps
	closers []io.Closer
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// Closers are released after the database and Redis on Shutdown.
func New(d routes.Deps, closers ...io.Closer) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               d.Cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		DisableStartupMessage: !d.Cfg.IsDev(),
		ErrorHandler:          ErrorHandler(d.Cfg.IsDev()),
	})

	if err := routes.Setup(app, d); err != nil {
		return nil, err
	}

	return &Server{app: app, deps: d, closers: closers}, nil
}

// ErrorHandler renders every error as {"message": ...}. Outside development
// the text of unexpected 5xx errors is replaced with a generic message.
func ErrorHandler(exposeInternal bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError && code != fiber.StatusBadGateway &&
			code != fiber.StatusServiceUnavailable && !exposeInternal {
			message = http.StatusText(code)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}

// App exposes the Fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.deps.Cfg.Address())
}

// Shutdown drains in-flight requests, then closes the database, Redis and any extra closers.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	err = multierr.Append(err, s.deps.DB.Close())
	if s.deps.Cache != nil {
		err = multierr.Append(err, s.deps.Cache.Close())
	}
	for _, c := range s.closers {
		if c != nil {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
