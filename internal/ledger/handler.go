package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Handler exposes the admin ledger endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type adjustRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference"`
}

// EntryResponse is the public JSON shape of a ledger entry.
type EntryResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Reference    string    `json:"reference"`
	Kind         string    `json:"kind"`
	Description  string    `json:"description,omitempty"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

func toResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Reference:    e.Reference,
		Kind:         e.Kind,
		Description:  e.Description,
		Amount:       e.Amount.StringFixed(2),
		BalanceAfter: e.BalanceAfter.StringFixed(2),
		CreatedAt:    e.CreatedAt,
	}
}

// Adjust posts a manual balance adjustment.
func (h *Handler) Adjust(c *fiber.Ctx) error {
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.service.Adjust(c.UserContext(), AdjustInput{
		UserID:    c.Params("userId"),
		Amount:    req.Amount,
		Reason:    req.Reason,
		Reference: req.Reference,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateTransaction):
			return c.Status(http.StatusOK).JSON(fiber.Map{"entry": toResponse(entry)})
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingReason):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAccountNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"entry": toResponse(entry)})
}

// Entries lists a user's ledger.
func (h *Handler) Entries(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"entries": out})
}
