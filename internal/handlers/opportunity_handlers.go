package handlers

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type OpportunityHandlers struct {
	opportunityService services.OpportunityService
}

func NewOpportunityHandlers(opportunityService services.OpportunityService) *OpportunityHandlers {
	return &OpportunityHandlers{opportunityService: opportunityService}
}

func (h *OpportunityHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.CreateOpportunityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	opportunity, err := h.opportunityService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, opportunity)
}

func (h *OpportunityHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	opportunity, err := h.opportunityService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "opportunity")
	}
	return c.JSON(http.StatusOK, opportunity)
}

func (h *OpportunityHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req services.UpdateOpportunityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.ID = id

	if err := h.opportunityService.Update(ctx, &req); err != nil {
		return lookupError(err, "opportunity")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OpportunityHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.opportunityService.Delete(ctx, tenantID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete opportunity")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OpportunityHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	opportunities, err := h.opportunityService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list opportunities")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"opportunities": opportunities,
		"limit":         limit,
		"offset":        offset,
	})
}

type MoveStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

func (h *OpportunityHandlers) MoveStage(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req MoveStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.opportunityService.MoveStage(ctx, tenantID, id, req.Stage); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
