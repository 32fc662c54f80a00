// Package service holds the session lifecycle orchestration and the broker
// publisher.  The session manager keeps no state of its own; the credential
// store is the single source of truth for users and refresh sessions.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avolkov/finance-tracker/internal/auth"
	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/repository"
)

var (
	// ErrValidation is returned when a required input is missing.
	ErrValidation = errors.New("email and password required")
	// ErrEmailInUse is returned when the email is already registered.
	ErrEmailInUse = errors.New("email already in use")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingToken is returned when no refresh token was supplied.
	ErrMissingToken = errors.New("refresh token required")
	// ErrSessionExpired is returned when the refresh session row is absent
	// or past its expiry.  A rotated, revoked, or expired token all land
	// here; none of them can be told apart from the outside.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidToken is returned when a refresh token fails signature or
	// claim validation.
	ErrInvalidToken = errors.New("invalid refresh token")
)

// UserStore is the slice of the credential store the manager needs for
// identity records.
type UserStore interface {
	InsertUser(ctx context.Context, email, passwordHash string) (model.User, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	FindUserByID(ctx context.Context, id uint64) (model.User, error)
}

// SessionStore is the slice of the credential store the manager needs for
// refresh sessions.  DeleteSessionByToken reports whether a row was removed
// so concurrent rotations of the same token resolve to exactly one winner.
type SessionStore interface {
	InsertSession(ctx context.Context, userID uint64, token string, expiresAt time.Time) error
	FindSessionByToken(ctx context.Context, token string) (model.RefreshSession, error)
	DeleteSessionByToken(ctx context.Context, token string) (bool, error)
}

// TokenPair bundles a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// SessionManager orchestrates registration, login, refresh rotation and
// logout over the credential store and token codec.
type SessionManager struct {
	users      UserStore
	sessions   SessionStore
	codec      *auth.Codec
	bcryptCost int
}

func NewSessionManager(users UserStore, sessions SessionStore, codec *auth.Codec, bcryptCost int) *SessionManager {
	return &SessionManager{users: users, sessions: sessions, codec: codec, bcryptCost: bcryptCost}
}

// Register creates a user and opens their first session.  The existence
// check is advisory; the store's unique index catches concurrent duplicate
// registrations, and that path surfaces as ErrEmailInUse too.
func (m *SessionManager) Register(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, TokenPair{}, ErrValidation
	}
	if _, err := m.users.FindUserByEmail(ctx, email); err == nil {
		return model.User{}, TokenPair{}, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, TokenPair{}, err
	}
	hash, err := auth.HashPassword(password, m.bcryptCost)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	u, err := m.users.InsertUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, TokenPair{}, ErrEmailInUse
		}
		return model.User{}, TokenPair{}, err
	}
	pair, err := m.openSession(ctx, u.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Login verifies credentials and opens a new independent session.  Existing
// sessions on other devices are untouched.
func (m *SessionManager) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	u, err := m.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return model.User{}, TokenPair{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, ErrInvalidCredentials
	}
	pair, err := m.openSession(ctx, u.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented value is consumed and a new
// access/refresh pair is issued.  The new session row is inserted before the
// old one is deleted so a crash in between never strands the user with no
// valid session.  If the delete finds the old row already gone, a concurrent
// refresh won the race; the loser removes its own new row and reports the
// session expired.
func (m *SessionManager) Refresh(ctx context.Context, token string) (TokenPair, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenPair{}, ErrMissingToken
	}
	sess, err := m.sessions.FindSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrSessionExpired
		}
		return TokenPair{}, err
	}
	if !time.Now().UTC().Before(sess.ExpiresAt) {
		// Expired rows are as good as absent; prune this one on the way out.
		_, _ = m.sessions.DeleteSessionByToken(ctx, token)
		return TokenPair{}, ErrSessionExpired
	}
	uid, err := m.codec.Verify(token, auth.ClassRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return TokenPair{}, ErrSessionExpired
		}
		return TokenPair{}, ErrInvalidToken
	}
	if uid != sess.UserID {
		return TokenPair{}, ErrInvalidToken
	}

	pair, err := m.openSession(ctx, sess.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	deleted, err := m.sessions.DeleteSessionByToken(ctx, token)
	if err != nil {
		return TokenPair{}, err
	}
	if !deleted {
		// Lost the rotation race: another request consumed this token first.
		_, _ = m.sessions.DeleteSessionByToken(ctx, pair.RefreshToken)
		return TokenPair{}, ErrSessionExpired
	}
	return pair, nil
}

// Logout revokes the session for the given refresh token.  Revoking an
// absent or already-revoked token is not an error, and no token at all means
// there is nothing to do.
func (m *SessionManager) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	_, err := m.sessions.DeleteSessionByToken(ctx, token)
	return err
}

// openSession issues an access/refresh pair and persists the refresh side as
// a new session row.
func (m *SessionManager) openSession(ctx context.Context, userID uint64) (TokenPair, error) {
	access, accessExp, err := m.codec.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.codec.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := m.sessions.InsertSession(ctx, userID, refresh, refreshExp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}
