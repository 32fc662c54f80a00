package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/avolkov/finance-tracker/internal/model"
)

// SessionRepo persists refresh sessions (one row per outstanding refresh
// token).  All mutation is single-row and atomic; DeleteSessionByToken's
// rows-affected result is what arbitrates concurrent rotations of the same
// token.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// InsertSession stores a new refresh session row.
func (r *SessionRepo) InsertSession(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_sessions (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, expiresAt)
	return err
}

// FindSessionByToken returns the session row for a token value, or
// ErrNotFound.  Expiry is not checked here; the service layer owns that
// decision.
func (r *SessionRepo) FindSessionByToken(ctx context.Context, token string) (model.RefreshSession, error) {
	var s model.RefreshSession
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM refresh_sessions WHERE token=? LIMIT 1",
		token).Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshSession{}, ErrNotFound
	}
	return s, err
}

// DeleteSessionByToken removes the row for a token value and reports whether
// a row was actually deleted.  When two requests race to rotate the same
// token, exactly one sees true here.
func (r *SessionRepo) DeleteSessionByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_sessions WHERE token=?", token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteExpiredSessions prunes rows whose expiry has passed.  Correctness
// never depends on this; expired rows are treated as absent on lookup.
func (r *SessionRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
