package handlers

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type TenantHandlers struct {
	tenantService services.TenantService
}

func NewTenantHandlers(tenantService services.TenantService) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// Signup onboards a new tenant with its owner account. This is the one
// tenant route that runs without a resolved tenant.
func (h *TenantHandlers) Signup(c echo.Context) error {
	var req services.OnboardTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenant, err := h.tenantService.Onboard(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tenant)
}

// GetCurrent returns the resolved tenant for this request.
func (h *TenantHandlers) GetCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	tenant, err := h.tenantService.GetByID(ctx, tenantID)
	if err != nil {
		return lookupError(err, "tenant")
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateCurrent updates the resolved tenant's settings.
func (h *TenantHandlers) UpdateCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.ID = tenantID

	if err := h.tenantService.Update(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// DeactivateCurrent suspends the resolved tenant. Data is retained.
func (h *TenantHandlers) DeactivateCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	if err := h.tenantService.Deactivate(ctx, tenantID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to deactivate tenant")
	}
	return c.NoContent(http.StatusNoContent)
}
