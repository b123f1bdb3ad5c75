package handlers

import (
	"log"
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/jobs"
	"crmhub/internal/services"

	"github.com/labstack/echo/v4"
)

type OrderHandlers struct {
	orderService   services.OrderService
	paymentService services.PaymentService
	taskClient     jobs.Enqueuer
}

func NewOrderHandlers(orderService services.OrderService, paymentService services.PaymentService, taskClient jobs.Enqueuer) *OrderHandlers {
	return &OrderHandlers{orderService: orderService, paymentService: paymentService, taskClient: taskClient}
}

func (h *OrderHandlers) Create(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	var req services.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TenantID = tenantID

	order, err := h.orderService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.taskClient != nil {
		if task, err := jobs.NewOrderConfirmationTask(tenantID, order.ID); err == nil {
			if _, err := h.taskClient.EnqueueContext(ctx, task); err != nil {
				log.Printf("Failed to enqueue order confirmation for %s: %v", order.ID, err)
			}
		}
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandlers) Get(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	order, err := h.orderService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "order")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	limit, offset := pagination(c)
	orders, err := h.orderService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"limit":  limit,
		"offset": offset,
	})
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandlers) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	var req UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.orderService.UpdateStatus(ctx, tenantID, id, req.Status); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// Pay registers the order with the payment provider and returns the
// provider order for client-side checkout.
func (h *OrderHandlers) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not resolved")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", "must be a valid UUID")
	}

	order, err := h.orderService.GetByID(ctx, tenantID, id)
	if err != nil {
		return lookupError(err, "order")
	}

	paymentOrder, err := h.paymentService.CreatePaymentOrder(ctx, tenantID, order.ID, order.Total, "INR")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Payment provider unavailable")
	}
	return c.JSON(http.StatusOK, paymentOrder)
}
