package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/convo-ai/convo_ai/internal/notification"
)

var (
	// ErrMissingFields is returned when registration lacks a name or phone number.
	ErrMissingFields = errors.New("name and phone_number are required")
	// ErrNotFound indicates no user exists for the identifier.
	ErrNotFound = errors.New("user not found")
)

// Service manages the user lifecycle.
type Service struct {
	repo     Repository
	notifier notification.Notifier
}

// NewService creates a new user service. The notifier may be nil.
func NewService(repo Repository, notifier notification.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Register creates a user with a zero balance. Phone numbers are neither
// deduplicated nor format checked.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.PhoneNumber)
	if name == "" || phone == "" {
		return User{}, ErrMissingFields
	}

	user := User{
		ID:          uuid.New().String(),
		Name:        name,
		PhoneNumber: phone,
		Balance:     decimal.Zero,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindUserRegistered,
			Destination: user.ID,
			Body:        "user registered",
		})
	}

	return user, nil
}

// Get fetches a single user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	return s.repo.FindByID(ctx, id)
}

// Exists reports whether a user with the identifier is registered.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all users without pagination.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}
