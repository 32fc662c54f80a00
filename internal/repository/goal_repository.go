package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/finance-tracker/internal/model"
)

// GoalRepo persists savings goals, scoped per user like TransactionRepo.
type GoalRepo struct{ DB *sql.DB }

func NewGoalRepo(db *sql.DB) *GoalRepo { return &GoalRepo{DB: db} }

// Create inserts a goal with a fresh UUID.
func (r *GoalRepo) Create(ctx context.Context, g *model.SavingsGoal) error {
	g.ID = uuid.NewString()
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO savings_goals (id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		g.ID, g.UserID, g.Name, g.TargetCents, g.SavedCents, g.Deadline, g.CreatedAt, g.UpdatedAt)
	return err
}

// ListByUser returns all goals of a user, oldest first.
func (r *GoalRepo) ListByUser(ctx context.Context, userID uint64) ([]model.SavingsGoal, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at FROM savings_goals WHERE user_id=? ORDER BY created_at",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.SavingsGoal, 0)
	for rows.Next() {
		var g model.SavingsGoal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetCents, &g.SavedCents, &g.Deadline, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// GetByID fetches one goal owned by the user.
func (r *GoalRepo) GetByID(ctx context.Context, userID uint64, id string) (model.SavingsGoal, error) {
	var g model.SavingsGoal
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, name, target_cents, saved_cents, deadline, created_at, updated_at FROM savings_goals WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetCents, &g.SavedCents, &g.Deadline, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.SavingsGoal{}, ErrNotFound
	}
	return g, err
}

// Update replaces the mutable fields of a goal owned by the user.
func (r *GoalRepo) Update(ctx context.Context, g *model.SavingsGoal) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE savings_goals SET name=?, target_cents=?, deadline=?, updated_at=? WHERE id=? AND user_id=?",
		g.Name, g.TargetCents, g.Deadline, time.Now().UTC(), g.ID, g.UserID)
	return err
}

// Deposit atomically adds amountCents to a goal's saved total.  The single
// UPDATE keeps concurrent deposits from losing increments.
func (r *GoalRepo) Deposit(ctx context.Context, userID uint64, id string, amountCents int64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE savings_goals SET saved_cents = saved_cents + ?, updated_at=? WHERE id=? AND user_id=?",
		amountCents, time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a goal owned by the user.
func (r *GoalRepo) Delete(ctx context.Context, userID uint64, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM savings_goals WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
