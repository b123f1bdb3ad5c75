package tenancy

import (
	"errors"
	"net/http"
	"strings"

	"crmhub/internal/common"

	"github.com/labstack/echo/v4"
)

// Paths served without a tenant: onboarding, health, docs, and webhooks
// (which carry the tenant inside the payload). Auth routes are NOT here:
// login only means something inside a resolved tenant.
var publicPrefixes = []string{
	"/v1/tenants/signup",
	"/health",
	"/swagger",
	"/webhooks/",
}

func isPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware resolves the tenant for every non-public request, binds a
// scope, and releases it when the request ends. The resolved tenant id
// is also placed on the request context for repositories and logging.
func Middleware(resolver *Resolver, router *ScopeRouter, tenantHeader string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isPublicPath(c.Request().URL.Path) {
				return next(c)
			}

			ctx := c.Request().Context()
			if _, ok := ScopeFromContext(ctx); ok {
				// A scope is already bound; binding twice would leak a
				// pinned connection.
				return echo.NewHTTPError(http.StatusInternalServerError, "tenant scope already bound")
			}

			tenant, err := resolver.Resolve(ctx, c.Request().Host, c.Request().Header.Get(tenantHeader))
			if err != nil {
				return resolveError(err)
			}

			scope, err := router.Bind(ctx, tenant)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "could not bind tenant scope")
			}
			defer scope.Release(ctx)

			ctx = WithScope(ctx, scope)
			ctx = common.WithTenantID(ctx, tenant.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(common.TenantIDKey), tenant.ID)

			return next(c)
		}
	}
}

// resolveError maps resolver failures onto transport status codes.
// Unknown and ambiguous tenants read as 404 so probing requests learn
// nothing about which tenants exist.
func resolveError(err error) error {
	switch {
	case errors.Is(err, ErrNoTenant):
		return echo.NewHTTPError(http.StatusUnauthorized, "no tenant identified")
	case errors.Is(err, ErrUnknownTenant), errors.Is(err, ErrAmbiguousTenant):
		return echo.NewHTTPError(http.StatusNotFound, "tenant not found")
	case errors.Is(err, ErrTenantSuspended):
		return echo.NewHTTPError(http.StatusForbidden, "tenant is suspended")
	case errors.Is(err, ErrTrialExpired):
		return echo.NewHTTPError(http.StatusForbidden, "trial period has ended")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "tenant resolution failed")
	}
}
