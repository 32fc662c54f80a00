package model

import "time"

// RefreshSession models a row in the `refresh_sessions` table: one
// outstanding refresh token for one user.  A user may hold several rows at
// once (one per device/tab).  The table is the single source of truth for
// which refresh tokens are still valid — a deleted row never authorizes a
// refresh again, no matter what the token's signature says.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  Token     – the refresh token value (unique).
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshSession struct {
	ID        uint64    // refresh_sessions.id
	UserID    uint64    // refresh_sessions.user_id
	Token     string    // refresh_sessions.token
	ExpiresAt time.Time // refresh_sessions.expires_at
	CreatedAt time.Time // refresh_sessions.created_at
}
