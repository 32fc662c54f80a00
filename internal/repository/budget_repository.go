package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/avolkov/finance-tracker/internal/model"
)

// BudgetRepo persists the one budget-settings row each user may have.
type BudgetRepo struct{ DB *sql.DB }

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{DB: db} }

// Upsert writes the user's budget settings, creating the row on first write
// and replacing it afterwards.  user_id is the primary key, so the
// ON DUPLICATE KEY branch is what makes repeated PUTs idempotent.
func (r *BudgetRepo) Upsert(ctx context.Context, b *model.BudgetSetting) error {
	b.UpdatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO budget_settings (user_id, monthly_limit_cents, currency, updated_at)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE monthly_limit_cents=VALUES(monthly_limit_cents), currency=VALUES(currency), updated_at=VALUES(updated_at)`,
		b.UserID, b.MonthlyLimitCents, b.Currency, b.UpdatedAt)
	return err
}

// Get fetches the user's budget settings or ErrNotFound.
func (r *BudgetRepo) Get(ctx context.Context, userID uint64) (model.BudgetSetting, error) {
	var b model.BudgetSetting
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, monthly_limit_cents, currency, updated_at FROM budget_settings WHERE user_id=? LIMIT 1",
		userID).Scan(&b.UserID, &b.MonthlyLimitCents, &b.Currency, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.BudgetSetting{}, ErrNotFound
	}
	return b, err
}
