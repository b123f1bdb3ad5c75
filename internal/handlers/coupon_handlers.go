package handlers

import (
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type CouponHandlers struct {
	couponService services.CouponService
}

func NewCouponHandlers(couponService services.CouponService) *CouponHandlers {
	return &CouponHandlers{couponService: couponService}
}

func (h *CouponHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	coupon, err := h.couponService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	coupon, err := h.couponService.GetByCode(ctx, tenantID, c.Param("code"))
	if err != nil {
		return lookupError(err, "coupon")
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	coupons, err := h.couponService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list coupons")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"coupons": coupons,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *CouponHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.couponService.Delete(ctx, tenantID, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete coupon")
	}
	return c.NoContent(http.StatusNoContent)
}
