package middleware

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTMiddleware validates the bearer token and checks the caller's
// membership in the resolved tenant. The token's tenant_id claim must
// match the tenant the request resolved to; a mismatched claim is an
// authentication failure, not a tenant switch.
func JWTMiddleware(memberships repositories.MembershipRepository, jwtSecret string) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user_id in token")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user_id format")
			}

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
			}

			// Every token this service issues carries tenant_id; a token
			// without it was not minted here.
			claimTenant, ok := claims["tenant_id"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token not issued for this tenant")
			}
			claimID, err := uuid.Parse(claimTenant)
			if err != nil || claimID != tenantID {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token not issued for this tenant")
			}

			membership, err := memberships.GetActive(ctx, tenantID, userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "No active membership in tenant")
			}

			// Best effort; a failed touch never fails the request.
			_ = memberships.TouchLastAccess(ctx, tenantID, userID)

			ctx = common.WithUserID(ctx, userID)
			ctx = common.WithRole(ctx, membership.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		})
	}
}
