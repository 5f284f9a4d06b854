package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/convo-ai/convo_ai/internal/conversation"
	"github.com/convo-ai/convo_ai/internal/users"
)

// RegisterChatRoutes wires the conversation relay behind its rate limiter.
func RegisterChatRoutes(r fiber.Router, h *conversation.Handler, rateLimiter fiber.Handler) {
	r.Post("/chat", rateLimiter, h.Chat)
}

// RegisterUserRoutes wires public onboarding.
func RegisterUserRoutes(r fiber.Router, h *users.Handler) {
	r.Post("/register", h.Register)
}
