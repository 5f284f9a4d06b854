package users

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TableName is the table holding user rows. The ledger updates balances in it directly.
const TableName = "users"

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
}

type userRow struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"not null"`
	PhoneNumber string          `gorm:"column:phone_number;not null"`
	Balance     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	CreatedAt   time.Time       `gorm:"not null;index"`
}

func (userRow) TableName() string { return TableName }

func rowFromUser(u User) userRow {
	return userRow{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Balance:     u.Balance,
		CreatedAt:   u.CreatedAt.UTC(),
	}
}

func (r userRow) toUser() User {
	return User{
		ID:          r.ID,
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Balance:     r.Balance,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// GormRepository implements Repository on top of GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a GORM-backed user repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate creates or updates the users table.
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&userRow{})
}

// Create inserts a new user.
func (r *GormRepository) Create(ctx context.Context, user User) error {
	row := rowFromUser(user)
	return r.db.WithContext(ctx).Create(&row).Error
}

// FindByID fetches a user by identifier.
func (r *GormRepository) FindByID(ctx context.Context, id string) (User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return row.toUser(), nil
}

// List returns every user ordered by registration time.
func (r *GormRepository) List(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toUser())
	}
	return out, nil
}
