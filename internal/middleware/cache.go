package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/avolkov/finance-tracker/internal/config"
)

// Cache is a per-user response cache for GET endpoints backed by Redis.
// Entries are keyed by user, route, query and the user's epoch counter;
// bumping the epoch on any write makes every cached read for that user
// unreachable at once, which is cheaper than tracking individual keys.
// A nil Cache (Redis unavailable or disabled) is a no-op everywhere.
type Cache struct {
	rdb *redis.Client
	cfg config.CacheConfig
}

// NewCache returns a Cache, or nil when caching is disabled or no Redis
// client could be established.
func NewCache(cfg config.CacheConfig, rdb *redis.Client) *Cache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &Cache{rdb: rdb, cfg: cfg}
}

// Invalidate bumps the user's epoch so all of their cached responses expire.
// Failures are swallowed; a stale cache entry only lives until its TTL.
func (ca *Cache) Invalidate(ctx context.Context, userID uint64) {
	if ca == nil {
		return
	}
	_ = ca.rdb.Incr(ctx, ca.epochKey(userID)).Err()
}

// Middleware caches successful GET responses for authenticated users.  Other
// methods and unauthenticated requests pass straight through.
func (ca *Cache) Middleware() echo.MiddlewareFunc {
	if ca == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			userID, err := CurrentUserID(c)
			if err != nil {
				return next(c)
			}
			ctx := c.Request().Context()
			key := ca.key(ctx, userID, c)

			if body, err := ca.rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(ca.cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && !cw.overflowed() {
				_ = ca.rdb.SetEx(context.Background(), key, cw.buf.Bytes(), ca.cfg.TTL).Err()
			}
			return nil
		}
	}
}

func (ca *Cache) epochKey(userID uint64) string {
	return fmt.Sprintf("%s:epoch:%d", ca.cfg.Prefix, userID)
}

// key builds the storage key from the user's current epoch plus the route
// and query.  A missing epoch counts as zero.
func (ca *Cache) key(ctx context.Context, userID uint64, c echo.Context) string {
	epoch, _ := ca.rdb.Get(ctx, ca.epochKey(userID)).Int64()
	tail := strconv.FormatInt(epoch, 10) + ":" + c.Path() + "?" + c.Request().URL.RawQuery
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:u%d:%x", ca.cfg.Prefix, userID, sum[:])
}

// captureWriter forwards the response to the client while keeping a bounded
// copy of the body for the cache.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.size += int64(len(b))
	if cw.limit <= 0 || cw.size <= cw.limit {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// overflowed reports whether the body exceeded the capture limit, in which
// case the buffered copy is incomplete and must not be cached.
func (cw *captureWriter) overflowed() bool {
	return cw.limit > 0 && cw.size > cw.limit
}
