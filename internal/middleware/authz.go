package middleware

import (
	"net/http"

	"crmhub/internal/authz"
	"crmhub/internal/common"

	"github.com/labstack/echo/v4"
)

type AuthzMiddleware struct {
	engine *authz.Engine
}

func NewAuthzMiddleware(engine *authz.Engine) *AuthzMiddleware {
	return &AuthzMiddleware{engine: engine}
}

// Require gates a route on a resource/action pair. The decision comes
// from the policy engine; routes never embed permission logic.
func (m *AuthzMiddleware) Require(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
			}
			role, ok := common.GetRoleFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}

			allowed, err := m.engine.Allowed(ctx, tenantID, role, resource, action)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Error checking permission")
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}

			return next(c)
		}
	}
}
