package conversation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the chat endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a chat HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response   string  `json:"response"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Chat relays one message and returns the templated reply.
func (h *Handler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	reply, err := h.service.Reply(c.UserContext(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrClassifierUnavailable):
			return fiber.NewError(http.StatusBadGateway, "intent service unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(chatResponse{
		Response:   reply.Response,
		Intent:     reply.Intent,
		Confidence: reply.Confidence,
	})
}
