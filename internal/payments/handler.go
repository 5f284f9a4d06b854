package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// FailureMessage is returned for any checkout the processor could not open.
const FailureMessage = "Payment creation failed"

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type payRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UserID string          `json:"user_id"`
}

// Pay opens a hosted checkout and returns its URL.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	payment, err := h.service.Initiate(c.UserContext(), InitiateInput{Amount: req.Amount, UserID: req.UserID})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrUnknownUser):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrGatewayFailure):
			return fiber.NewError(http.StatusBadRequest, FailureMessage)
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"payment_url": payment.CheckoutURL,
		"payment_id":  payment.ID,
	})
}

// Get returns a stored payment.
func (h *Handler) Get(c *fiber.Ctx) error {
	payment, err := h.service.Get(c.UserContext(), c.Params("paymentId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(payment))
}

// Webhook applies a processor event posted to us.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	err := h.service.HandleWebhook(c.UserContext(), c.Body(), c.Get(stripeSignatureHeader))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"received": true})
}
