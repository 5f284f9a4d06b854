package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// UserResponse is the public JSON shape of a user record.
type UserResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Balance     float64   `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts a user into its JSON representation.
func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Balance:     u.Balance.InexactFloat64(),
		CreatedAt:   u.CreatedAt,
	}
}

// Register handles user onboarding.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), RegisterInput{Name: req.Name, PhoneNumber: req.PhoneNumber})
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

// List dumps every registered user.
func (h *Handler) List(c *fiber.Ctx) error {
	all, err := h.service.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]UserResponse, 0, len(all))
	for _, u := range all {
		out = append(out, ToResponse(u))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"users": out})
}

// Get returns one user by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("userId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(ToResponse(user))
}
