package middleware

import (
	"time"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditMiddleware records mutating HTTP requests into the tenant's audit
// trail. Reads are not audited.
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{auditService: auditService}
}

func (m *AuditMiddleware) AuditRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			method := c.Request().Method
			if method == "GET" || method == "HEAD" || method == "OPTIONS" {
				return err
			}

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}

			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			data := map[string]interface{}{
				"method":     method,
				"path":       c.Path(),
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
				"timestamp":  time.Now().Format(time.RFC3339),
			}
			if err != nil {
				data["error"] = err.Error()
			}

			action := method + " " + c.Path()
			if logErr := m.auditService.LogActivity(ctx, tenantID, "http_requests", c.Path(), action, userPtr, nil, data); logErr != nil {
				c.Logger().Errorf("Failed to log audit activity: %v", logErr)
			}

			return err
		}
	}
}
