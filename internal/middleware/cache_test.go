package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/finance-tracker/internal/config"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}
	ca := NewCache(cfg, rdb)
	require.NotNil(t, ca)
	return ca
}

// cachedGet performs a GET through the cache middleware as the given user,
// counting handler invocations through hits.
func cachedGet(t *testing.T, ca *Cache, userID uint64, hits *int) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/transactions")
	c.Set("user_id", userID)

	h := ca.Middleware()(func(c echo.Context) error {
		*hits++
		return c.JSON(http.StatusOK, echo.Map{"hits": *hits})
	})
	require.NoError(t, h(c))
	return rec
}

func TestCache_HitAndMiss(t *testing.T) {
	t.Parallel()
	ca := newTestCache(t)

	var hits int
	rec := cachedGet(t, ca, 1, &hits)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, hits)

	rec = cachedGet(t, ca, 1, &hits)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, hits) // handler not invoked again
	assert.Contains(t, rec.Body.String(), `"hits":1`)
}

func TestCache_IsolatedPerUser(t *testing.T) {
	t.Parallel()
	ca := newTestCache(t)

	var hits int
	cachedGet(t, ca, 1, &hits)
	rec := cachedGet(t, ca, 2, &hits)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, hits)
}

func TestCache_InvalidateBumpsEpoch(t *testing.T) {
	t.Parallel()
	ca := newTestCache(t)

	var hits int
	cachedGet(t, ca, 1, &hits)
	ca.Invalidate(context.Background(), 1)

	rec := cachedGet(t, ca, 1, &hits)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 2, hits)
}

func TestCache_NilIsNoop(t *testing.T) {
	t.Parallel()
	var ca *Cache

	var hits int
	rec := cachedGet(t, ca, 1, &hits)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)
	ca.Invalidate(context.Background(), 1) // must not panic
}
