package model

import "time"

// SavingsGoal tracks progress towards a named savings target.  SavedCents
// only ever changes through atomic increments so concurrent deposits from
// several devices never lose an update.
type SavingsGoal struct {
	ID          string    `json:"id"`           // savings_goals.id (UUID)
	UserID      uint64    `json:"-"`            // savings_goals.user_id
	Name        string    `json:"name"`         // savings_goals.name
	TargetCents int64     `json:"target_cents"` // savings_goals.target_cents
	SavedCents  int64     `json:"saved_cents"`  // savings_goals.saved_cents
	Deadline    *string   `json:"deadline"`     // savings_goals.deadline (YYYY-MM-DD, nullable)
	CreatedAt   time.Time `json:"created_at"`   // savings_goals.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // savings_goals.updated_at
}
