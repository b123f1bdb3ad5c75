package handlers

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type ReviewHandlers struct {
	reviewService services.ReviewService
}

func NewReviewHandlers(reviewService services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviewService: reviewService}
}

func (h *ReviewHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req services.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.UserID = userID

	review, err := h.reviewService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandlers) ListByProduct(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	productID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	limit, offset := pagination(c)
	reviews, err := h.reviewService.ListByProduct(ctx, tenantID, productID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list reviews")
	}

	rating, err := h.reviewService.ProductRating(ctx, tenantID, productID)
	if err != nil {
		rating = 0
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reviews":        reviews,
		"average_rating": rating,
		"limit":          limit,
		"offset":         offset,
	})
}

func (h *ReviewHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.reviewService.Delete(ctx, tenantID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete review")
	}
	return c.NoContent(http.StatusNoContent)
}
