package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/finance-tracker/internal/model"
)

// TransactionRepo persists income/expense records.  Every query is scoped by
// user_id so one user can never read or mutate another user's rows.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

// Create inserts a transaction, assigning it a fresh UUID and creation time.
func (r *TransactionRepo) Create(ctx context.Context, tx *model.Transaction) error {
	tx.ID = uuid.NewString()
	tx.CreatedAt = time.Now().UTC()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO transactions (id, user_id, amount_cents, type, category, tx_date, description, created_at) VALUES (?,?,?,?,?,?,?,?)",
		tx.ID, tx.UserID, tx.AmountCents, tx.Type, tx.Category, tx.Date, tx.Description, tx.CreatedAt)
	return err
}

// ListByUser returns all transactions of a user, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, amount_cents, type, category, tx_date, description, created_at FROM transactions WHERE user_id=? ORDER BY tx_date DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Type, &t.Category, &t.Date, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

// GetByID fetches one transaction owned by the user.
func (r *TransactionRepo) GetByID(ctx context.Context, userID uint64, id string) (model.Transaction, error) {
	var t model.Transaction
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, amount_cents, type, category, tx_date, description, created_at FROM transactions WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&t.ID, &t.UserID, &t.AmountCents, &t.Type, &t.Category, &t.Date, &t.Description, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Transaction{}, ErrNotFound
	}
	return t, err
}

// Update replaces the mutable fields of a transaction owned by the user.
// Callers verify existence via GetByID first; a no-op update reports zero
// affected rows on MySQL, so rows-affected is not used for not-found here.
func (r *TransactionRepo) Update(ctx context.Context, tx *model.Transaction) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE transactions SET amount_cents=?, type=?, category=?, tx_date=?, description=? WHERE id=? AND user_id=?",
		tx.AmountCents, tx.Type, tx.Category, tx.Date, tx.Description, tx.ID, tx.UserID)
	return err
}

// Delete removes a transaction owned by the user.
func (r *TransactionRepo) Delete(ctx context.Context, userID uint64, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM transactions WHERE id=? AND user_id=?", id, userID)
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
