package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/convo-ai/convo_ai/internal/auth"
	"github.com/convo-ai/convo_ai/internal/ledger"
	"github.com/convo-ai/convo_ai/internal/users"
)

// RegisterAdminRoutes wires the rate-limited token exchange and the guarded admin group.
// The token route is registered first so the guard never sees it.
func RegisterAdminRoutes(app *fiber.App, authHandler *auth.Handler, tokenLimiter, guard fiber.Handler, usersHandler *users.Handler, ledgerHandler *ledger.Handler) {
	app.Post("/admin/token", tokenLimiter, authHandler.Token)

	admin := app.Group("/admin", guard)
	admin.Get("/users", usersHandler.List)
	admin.Get("/users/:userId", usersHandler.Get)
	admin.Post("/users/:userId/adjustments", ledgerHandler.Adjust)
	admin.Get("/users/:userId/ledger", ledgerHandler.Entries)
}
