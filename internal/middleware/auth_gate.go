package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/auth"
	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/repository"
)

// Context keys populated by AuthGate for downstream handlers.
const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
)

// UserResolver resolves an access token's subject claim to a live user
// record.  The lookup is what lets deleted accounts lose access without any
// access-token revocation machinery.
type UserResolver interface {
	FindUserByID(ctx context.Context, id uint64) (model.User, error)
}

// AuthGate returns middleware that validates a Bearer access token and
// stashes the resolved identity in the request context.  Every credential
// failure (no token, bad signature, expired, user vanished) collapses into
// the same 401 response so callers cannot tell which case applied; a store
// outage surfaces as a plain 500 instead.
func AuthGate(codec *auth.Codec, users UserResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return unauthorized(c)
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			uid, err := codec.Verify(raw, auth.ClassAccess)
			if err != nil {
				return unauthorized(c)
			}
			u, err := users.FindUserByID(c.Request().Context(), uid)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c)
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
			}
			c.Set(ctxUserID, u.ID)
			c.Set(ctxUserEmail, u.Email)
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user's ID from the context.  It
// only fails when AuthGate did not run, which means a route was wired wrong.
func CurrentUserID(c echo.Context) (uint64, error) {
	id, ok := c.Get(ctxUserID).(uint64)
	if !ok {
		return 0, errors.New("no authenticated user in context")
	}
	return id, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
