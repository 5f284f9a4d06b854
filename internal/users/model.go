package users

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered platform member.
type User struct {
	ID          string
	Name        string
	PhoneNumber string
	Balance     decimal.Decimal
	CreatedAt   time.Time
}

// RegisterInput carries the fields accepted on registration.
type RegisterInput struct {
	Name        string
	PhoneNumber string
}
