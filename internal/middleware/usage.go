package middleware

import (
	"net/http"
	"time"

	"crmhub/internal/caching"
	"crmhub/internal/common"
	"crmhub/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// UsageMiddleware counts API calls per tenant per billing month and
// rejects requests once the tenant's plan limit is exhausted. The Redis
// counter holds the month's running total; a scheduled job snapshots it
// into Postgres for billing without resetting it.
type UsageMiddleware struct {
	cache caching.CacheService
}

func NewUsageMiddleware(cache caching.CacheService) *UsageMiddleware {
	return &UsageMiddleware{cache: cache}
}

func (m *UsageMiddleware) TrackAndLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return next(c)
			}

			period := time.Now().UTC().Format("2006-01")
			count, err := m.cache.IncrementAPIUsage(ctx, tenantID, period)
			if err != nil {
				// Redis being down must not take the API down with it.
				c.Logger().Warnf("usage tracking unavailable: %v", err)
				return next(c)
			}

			if scope, ok := tenancy.ScopeFromContext(ctx); ok {
				limit := scope.Tenant().MaxAPICallsPerMonth
				if limit > 0 && count > int64(limit) {
					return echo.NewHTTPError(http.StatusTooManyRequests, "Monthly API call limit reached")
				}
			}

			return next(c)
		}
	}
}
