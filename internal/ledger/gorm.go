package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/convo-ai/convo_ai/internal/users"
)

type entryRow struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	UserID       string          `gorm:"type:uuid;not null;index"`
	Reference    string          `gorm:"not null;uniqueIndex"`
	Kind         string          `gorm:"not null"`
	Description  string
	Amount       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

func (entryRow) TableName() string { return "ledger_entries" }

func (r entryRow) toEntry() Entry {
	return Entry{
		ID:           r.ID,
		UserID:       r.UserID,
		Reference:    r.Reference,
		Kind:         r.Kind,
		Description:  r.Description,
		Amount:       r.Amount,
		BalanceAfter: r.BalanceAfter,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// GormLedger records entries and moves user balances in a single database transaction.
type GormLedger struct {
	db *gorm.DB
}

// NewGormLedger constructs a GORM-backed ledger implementation.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// AutoMigrate creates the ledger_entries table.
func (l *GormLedger) AutoMigrate(ctx context.Context) error {
	return l.db.WithContext(ctx).AutoMigrate(&entryRow{})
}

// Post records the entry and adjusts users.balance atomically.
func (l *GormLedger) Post(ctx context.Context, p Posting) (Entry, error) {
	if p.Amount.IsZero() {
		return Entry{}, ErrInvalidAmount
	}
	if _, err := uuid.Parse(p.UserID); err != nil {
		return Entry{}, ErrAccountNotFound
	}
	if p.Reference == "" {
		p.Reference = fmt.Sprintf("%s:%s", p.Kind, uuid.NewString())
	}
	amount := p.Amount.Round(2)

	var out Entry
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByReference(tx, p.Reference)
		if err == nil {
			out = existing
			return ErrDuplicateTransaction
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		res := tx.Table(users.TableName).
			Where("id = ?", p.UserID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		var balance decimal.Decimal
		if err := tx.Table(users.TableName).Select("balance").Where("id = ?", p.UserID).Row().Scan(&balance); err != nil {
			return err
		}

		row := entryRow{
			ID:           uuid.NewString(),
			UserID:       p.UserID,
			Reference:    p.Reference,
			Kind:         p.Kind,
			Description:  p.Description,
			Amount:       amount,
			BalanceAfter: balance.Round(2),
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTransaction
			}
			return err
		}
		out = row.toEntry()
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateTransaction) {
			return Entry{}, err
		}
		if out.ID == "" {
			// lost the race on the unique index; the winner's row is committed
			existing, findErr := findByReference(l.db.WithContext(ctx), p.Reference)
			if findErr != nil {
				return Entry{}, fmt.Errorf("load entry %s: %w", p.Reference, findErr)
			}
			out = existing
		}
		return out, err
	}
	return out, nil
}

func findByReference(db *gorm.DB, reference string) (Entry, error) {
	var row entryRow
	if err := db.Where("reference = ?", reference).Take(&row).Error; err != nil {
		return Entry{}, err
	}
	return row.toEntry(), nil
}

// Entries lists a user's postings oldest first.
func (l *GormLedger) Entries(ctx context.Context, userID string) ([]Entry, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrAccountNotFound
	}
	var rows []entryRow
	if err := l.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntry())
	}
	return out, nil
}
