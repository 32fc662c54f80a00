package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/finance-tracker/internal/auth"
	"github.com/avolkov/finance-tracker/internal/handler"
	"github.com/avolkov/finance-tracker/internal/model"
	"github.com/avolkov/finance-tracker/internal/repository"
	"github.com/avolkov/finance-tracker/internal/router"
	"github.com/avolkov/finance-tracker/internal/service"
)

const refreshCookieName = "refreshToken"

// fakeStore backs the session manager in handler tests so the whole HTTP
// auth flow runs without a database.
type fakeStore struct {
	mu       sync.Mutex
	users    map[uint64]model.User
	byEmail  map[string]uint64
	sessions map[string]model.RefreshSession
	nextID   uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[uint64]model.User),
		byEmail:  make(map[string]uint64),
		sessions: make(map[string]model.RefreshSession),
	}
}

func (s *fakeStore) InsertUser(_ context.Context, email, hash string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return model.User{}, repository.ErrEmailExists
	}
	s.nextID++
	u := model.User{ID: s.nextID, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return u, nil
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		return s.users[id], nil
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeStore) FindUserByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (s *fakeStore) InsertSession(_ context.Context, userID uint64, token string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = model.RefreshSession{UserID: userID, Token: token, ExpiresAt: exp}
	return nil
}

func (s *fakeStore) FindSessionByToken(_ context.Context, token string) (model.RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return model.RefreshSession{}, repository.ErrNotFound
}

func (s *fakeStore) DeleteSessionByToken(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return false, nil
	}
	delete(s.sessions, token)
	return true, nil
}

func newAuthServer() *echo.Echo {
	codec := auth.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	store := newFakeStore()
	manager := service.NewSessionManager(store, store, codec, 4)

	e := echo.New()
	router.RegisterAuth(e, handler.NewAuthHandler(manager, false))
	return e
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookieName {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", refreshCookieName)
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "a@x.com", resp.User.Email)
	// Never leak the hash.
	assert.NotContains(t, rec.Body.String(), "password")

	ck := refreshCookieFrom(t, rec)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.NotEmpty(t, ck.Value)

	// Same email again: conflict.
	rec = doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"other"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing fields: validation error.
	rec = doJSON(e, http.MethodPost, "/api/register", `{"email":"b@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	regCookie := refreshCookieFrom(t, rec)

	rec = doJSON(e, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/login", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	loginCookie := refreshCookieFrom(t, rec)

	// Independent sessions: login issues a fresh refresh token and the
	// registration one stays usable.
	assert.NotEqual(t, regCookie.Value, loginCookie.Value)
	rec = doJSON(e, http.MethodPost, "/api/refresh", "", regCookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshEndpoint_Rotation(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	r0 := refreshCookieFrom(t, rec)

	rec = doJSON(e, http.MethodPost, "/api/refresh", "", r0)
	require.Equal(t, http.StatusOK, rec.Code)
	r1 := refreshCookieFrom(t, rec)
	assert.NotEqual(t, r0.Value, r1.Value)
	assert.Contains(t, rec.Body.String(), "accessToken")

	// R0 is spent.
	rec = doJSON(e, http.MethodPost, "/api/refresh", "", r0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// R1 still rotates.
	rec = doJSON(e, http.MethodPost, "/api/refresh", "", r1)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshEndpoint_BodyFallback(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	r0 := refreshCookieFrom(t, rec)

	rec = doJSON(e, http.MethodPost, "/api/refresh", `{"refreshToken":"`+r0.Value+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshEndpoint_NoToken(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpoint_Idempotent(t *testing.T) {
	t.Parallel()
	e := newAuthServer()

	rec := doJSON(e, http.MethodPost, "/api/register", `{"email":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	r0 := refreshCookieFrom(t, rec)

	rec = doJSON(e, http.MethodPost, "/api/logout", "", r0)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The session is revoked: the token no longer refreshes.
	rec = doJSON(e, http.MethodPost, "/api/refresh", "", r0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out again, or with no token at all, still succeeds.
	rec = doJSON(e, http.MethodPost, "/api/logout", "", r0)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodPost, "/api/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
