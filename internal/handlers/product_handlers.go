package handlers

import (
	"net/http"
	"strconv"

	"crmhub/internal/common"
	"crmhub/internal/models"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type ProductHandlers struct {
	productService services.ProductService
	reviewService  services.ReviewService
}

func NewProductHandlers(productService services.ProductService, reviewService services.ReviewService) *ProductHandlers {
	return &ProductHandlers{productService: productService, reviewService: reviewService}
}

func (h *ProductHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	product, err := h.productService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	product, err := h.productService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "product")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req services.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID
	req.ID = id

	if err := h.productService.Update(ctx, &req); err != nil {
		return lookupError(err, "product")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	if err := h.productService.Delete(ctx, tenantID, id); err != nil {
		return lookupError(err, "product")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandlers) Search(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	filter := &models.ProductSearchFilter{
		Query:  common.SanitizeSearchQuery(c.QueryParam("q")),
		Limit:  limit,
		Offset: offset,
	}
	if v := c.QueryParam("min_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinPrice = &price
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxPrice = &price
		}
	}
	if v := c.QueryParam("active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil {
			filter.Active = &active
		}
	}

	products, err := h.productService.Search(ctx, tenantID, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to search products")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"products": products,
		"limit":    limit,
		"offset":   offset,
	})
}

// UploadImage attaches an image to a product via multipart form upload.
func (h *ProductHandlers) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read image file")
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if err := h.productService.AttachImage(ctx, tenantID, id, file.Filename, contentType, src, file.Size); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload image")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandlers) ImageURL(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	url, err := h.productService.ImageURL(ctx, tenantID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
