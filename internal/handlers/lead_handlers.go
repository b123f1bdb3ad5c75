package handlers

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type LeadHandlers struct {
	leadService services.LeadService
}

func NewLeadHandlers(leadService services.LeadService) *LeadHandlers {
	return &LeadHandlers{leadService: leadService}
}

func (h *LeadHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	lead, err := h.leadService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	lead, err := h.leadService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "lead")
	}
	return c.JSON(http.StatusOK, lead)
}

func (h *LeadHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req services.UpdateLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.ID = id

	if err := h.leadService.Update(ctx, &req); err != nil {
		return lookupError(err, "lead")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LeadHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.leadService.Delete(ctx, tenantID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete lead")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LeadHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	leads, err := h.leadService.List(ctx, tenantID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list leads")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"leads":  leads,
		"limit":  limit,
		"offset": offset,
	})
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *LeadHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req UpdateLeadStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.leadService.UpdateStatus(ctx, tenantID, id, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LeadHandlers) Convert(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req services.ConvertLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.LeadID = id

	opportunity, err := h.leadService.Convert(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, opportunity)
}
