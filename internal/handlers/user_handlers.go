package handlers

import (
	"log"
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/jobs"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type UserHandlers struct {
	userService services.UserService
	taskClient  jobs.Enqueuer
}

func NewUserHandlers(userService services.UserService, taskClient jobs.Enqueuer) *UserHandlers {
	return &UserHandlers{userService: userService, taskClient: taskClient}
}

func (h *UserHandlers) Invite(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.InviteUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	user, err := h.userService.Invite(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.taskClient != nil {
		if task, err := jobs.NewWelcomeEmailTask(tenantID, user.ID, user.Email); err == nil {
			if _, err := h.taskClient.EnqueueContext(ctx, task); err != nil {
				log.Printf("Failed to enqueue welcome email for %s: %v", user.ID, err)
			}
		}
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	user, err := h.userService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "user")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req services.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.ID = id

	if err := h.userService.Update(ctx, &req); err != nil {
		return lookupError(err, "user")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.userService.Remove(ctx, tenantID, id); err != nil {
		return lookupError(err, "user")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	users, err := h.userService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list users")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":  users,
		"limit":  limit,
		"offset": offset,
	})
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *UserHandlers) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.userService.ChangeRole(ctx, tenantID, id, req.Role); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
