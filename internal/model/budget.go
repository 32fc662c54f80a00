package model

import "time"

// BudgetSetting is the single per-user budget configuration record.  It is
// written with update-or-insert semantics: the first PUT creates the row,
// every later PUT replaces it in place.
type BudgetSetting struct {
	UserID            uint64    `json:"-"`                   // budget_settings.user_id (PK)
	MonthlyLimitCents int64     `json:"monthly_limit_cents"` // budget_settings.monthly_limit_cents
	Currency          string    `json:"currency"`            // budget_settings.currency (ISO 4217)
	UpdatedAt         time.Time `json:"updated_at"`          // budget_settings.updated_at
}
