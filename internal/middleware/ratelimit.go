package middleware

import (
	"net/http"
	"time"

	"crmhub/internal/caching"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware throttles unauthenticated endpoints (login,
// signup) per client IP and path. The counter lives in Redis so the
// window holds across instances; Redis being down fails open.
type RateLimitMiddleware struct {
	cache  caching.CacheService
	limit  int
	window time.Duration
}

func NewRateLimitMiddleware(cache caching.CacheService, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{cache: cache, limit: limit, window: window}
}

func (m *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := c.RealIP() + ":" + c.Path()

			limited, err := m.cache.IsRateLimited(ctx, key, m.limit, m.window)
			if err != nil {
				c.Logger().Warnf("rate limiting unavailable: %v", err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, try again later")
			}

			if err := m.cache.IncrementRateLimit(ctx, key, m.window); err != nil {
				c.Logger().Warnf("rate limit increment failed: %v", err)
			}
			return next(c)
		}
	}
}
