package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avolkov/finance-tracker/internal/service"
)

// refreshCookie is the http-only cookie carrying the refresh token.
const refreshCookie = "refreshToken"

// AuthHandler exposes the four session-mutating endpoints.  All session
// logic lives in the service layer; this type only translates between HTTP
// and the session manager's error taxonomy.
type AuthHandler struct {
	Sessions *service.SessionManager
	Secure   bool // mark the refresh cookie Secure (prod only)
}

func NewAuthHandler(sessions *service.SessionManager, secure bool) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Secure: secure}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}
type authResp struct {
	AccessToken string   `json:"accessToken"`
	ExpiresAt   string   `json:"expiresAt"`
	User        userPart `json:"user"`
}

// Register creates an account and opens the first session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, pair, err := h.Sessions.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password required"})
		case errors.Is(err, service.ErrEmailInUse):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register"})
	}
	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusCreated, authResp{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpires.Format(time.RFC3339),
		User:        userPart{ID: u.ID, Email: u.Email},
	})
}

// Login verifies credentials and opens an additional session.  Unknown email
// and wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, pair, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to login"})
	}
	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, authResp{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpires.Format(time.RFC3339),
		User:        userPart{ID: u.ID, Email: u.Email},
	})
}

// Refresh rotates the presented refresh token for a new pair.  The token is
// taken from the cookie, falling back to the request body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := h.refreshTokenFrom(c)
	ctx, cancel := reqContext(c)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no refresh token"})
		case errors.Is(err, service.ErrSessionExpired):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
		case errors.Is(err, service.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh"})
	}
	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"accessToken": pair.AccessToken,
		"expiresAt":   pair.AccessExpires.Format(time.RFC3339),
	})
}

// Logout revokes the presented refresh token.  Logging out twice, or with no
// token at all, is still a success.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := h.refreshTokenFrom(c)
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, token); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to logout"})
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) refreshTokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshReq
	_ = c.Bind(&req)
	return req.RefreshToken
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, pair service.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpires,
		MaxAge:   int(time.Until(pair.RefreshExpires) / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// reqContext bounds DB round-trips for a single request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
