package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/convo-ai/convo_ai/internal/payments"
)

// RegisterPaymentRoutes wires checkout creation, lookup and the processor webhook.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, idempotency fiber.Handler) {
	r.Post("/pay", idempotency, h.Pay)
	r.Get("/payments/:paymentId", h.Get)
	r.Post("/webhooks/payments", h.Webhook)
}
