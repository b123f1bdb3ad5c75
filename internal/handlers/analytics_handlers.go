package handlers

import (
	"net/http"

	"crmhub/internal/analytics"
	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type AnalyticsHandlers struct {
	analyticsService analytics.Service
	usageService     services.UsageService
	auditService     services.AuditLogsService
}

func NewAnalyticsHandlers(analyticsService analytics.Service, usageService services.UsageService, auditService services.AuditLogsService) *AnalyticsHandlers {
	return &AnalyticsHandlers{analyticsService: analyticsService, usageService: usageService, auditService: auditService}
}

func (h *AnalyticsHandlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	dashboard, err := h.analyticsService.TenantDashboard(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *AnalyticsHandlers) Usage(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	current, err := h.usageService.CurrentUsage(ctx, tenantID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read usage")
	}
	history, err := h.usageService.History(ctx, tenantID, 12)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read usage history")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"current_period_calls": current,
		"history":              history,
	})
}

func (h *AnalyticsHandlers) AuditTrail(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	entries, err := h.auditService.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list audit log")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}
