package model

import "time"

// Transaction types accepted by the API.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is a single income or expense record belonging to one user.
// Records are keyed by a server-generated UUID so identifiers are stable
// across clients and never expose insertion order.  Amounts are stored in
// cents to avoid floating-point drift.
type Transaction struct {
	ID          string    `json:"id"`           // transactions.id (UUID)
	UserID      uint64    `json:"-"`            // transactions.user_id
	AmountCents int64     `json:"amount_cents"` // transactions.amount_cents
	Type        string    `json:"type"`         // income | expense
	Category    string    `json:"category"`     // transactions.category
	Date        string    `json:"date"`         // transactions.tx_date (YYYY-MM-DD)
	Description string    `json:"description"`  // transactions.description
	CreatedAt   time.Time `json:"created_at"`   // transactions.created_at
}
