package payments

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists payments.
type Repository interface {
	Create(ctx context.Context, payment Payment) error
	FindByID(ctx context.Context, id string) (Payment, error)
	FindByProviderRef(ctx context.Context, ref string) (Payment, error)
	// Transition moves a payment from one status to another and reports whether it did.
	Transition(ctx context.Context, id string, from, to Status, at time.Time) (bool, error)
}

type paymentRow struct {
	ID          string          `gorm:"type:uuid;primaryKey"`
	UserID      *string         `gorm:"type:uuid;index"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Currency    string          `gorm:"size:3;not null"`
	Provider    string          `gorm:"size:32;not null"`
	ProviderRef string          `gorm:"column:provider_ref;uniqueIndex"`
	CheckoutURL string          `gorm:"column:checkout_url;not null"`
	Status      string          `gorm:"size:16;not null;index"`
	CreatedAt   time.Time       `gorm:"not null"`
	CompletedAt *time.Time
}

func (paymentRow) TableName() string { return "payments" }

func rowFromPayment(p Payment) paymentRow {
	row := paymentRow{
		ID:          p.ID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Provider:    p.Provider,
		ProviderRef: p.ProviderRef,
		CheckoutURL: p.CheckoutURL,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.UTC(),
		CompletedAt: p.CompletedAt,
	}
	if p.UserID != "" {
		uid := p.UserID
		row.UserID = &uid
	}
	return row
}

func (r paymentRow) toPayment() Payment {
	p := Payment{
		ID:          r.ID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Provider:    r.Provider,
		ProviderRef: r.ProviderRef,
		CheckoutURL: r.CheckoutURL,
		Status:      Status(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.UserID != nil {
		p.UserID = *r.UserID
	}
	if r.CompletedAt != nil {
		at := r.CompletedAt.UTC()
		p.CompletedAt = &at
	}
	return p
}

// GormRepository implements Repository on top of GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a GORM-backed payment repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// AutoMigrate creates or updates the payments table.
func (r *GormRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&paymentRow{})
}

func (r *GormRepository) Create(ctx context.Context, payment Payment) error {
	row := rowFromPayment(payment)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormRepository) FindByProviderRef(ctx context.Context, ref string) (Payment, error) {
	return r.findOne(ctx, "provider_ref = ?", ref)
}

func (r *GormRepository) findOne(ctx context.Context, query string, arg any) (Payment, error) {
	var row paymentRow
	err := r.db.WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return row.toPayment(), nil
}

func (r *GormRepository) Transition(ctx context.Context, id string, from, to Status, at time.Time) (bool, error) {
	updates := map[string]any{"status": string(to)}
	if to == StatusSucceeded {
		updates["completed_at"] = at.UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&paymentRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
