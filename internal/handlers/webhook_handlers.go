package handlers

import (
	"io"
	"log"
	"net/http"

	"crmhub/internal/common"
	"crmhub/internal/services"
	"crmhub/internal/tenancy"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers receives payment provider callbacks. Webhooks arrive
// on the base domain with no tenant context, so the tenant is
// re-resolved from the id carried in the payload notes and validated
// before any data is touched.
type WebhookHandlers struct {
	paymentService services.PaymentService
	orderService   services.OrderService
	resolver       *tenancy.Resolver
	router         *tenancy.ScopeRouter
}

func NewWebhookHandlers(paymentService services.PaymentService, orderService services.OrderService, resolver *tenancy.Resolver, router *tenancy.ScopeRouter) *WebhookHandlers {
	return &WebhookHandlers{paymentService: paymentService, orderService: orderService, resolver: resolver, router: router}
}

func (h *WebhookHandlers) PaymentWebhook(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not read request body")
	}

	signature := c.Request().Header.Get("X-Razorpay-Signature")
	if !h.paymentService.VerifyWebhookSignature(rawBody, signature) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid webhook signature")
	}

	event, err := h.paymentService.ParseWebhookEvent(rawBody)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed webhook payload")
	}

	ctx := c.Request().Context()
	tenant, err := h.resolver.ByID(ctx, event.TenantID)
	if err != nil {
		// Acknowledge and drop: retrying cannot fix an unknown tenant.
		log.Printf("Webhook %s names unknown tenant %s", event.ID, event.TenantID)
		return c.NoContent(http.StatusOK)
	}
	if err := h.resolver.CheckOperational(tenant); err != nil {
		log.Printf("Webhook %s for non-operational tenant %s: %v", event.ID, tenant.ID, err)
		return c.NoContent(http.StatusOK)
	}

	scope, err := h.router.Bind(ctx, tenant)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Could not bind tenant scope")
	}
	defer scope.Release(ctx)
	ctx = tenancy.WithScope(ctx, scope)
	ctx = common.WithTenantID(ctx, tenant.ID)

	switch event.Event {
	case "order.paid", "payment.captured":
		if err := h.orderService.MarkPaid(ctx, tenant.ID, event.OrderID); err != nil {
			log.Printf("Webhook %s could not mark order %s paid: %v", event.ID, event.OrderID, err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to apply payment")
		}
	default:
		log.Printf("Ignoring webhook event %s (%s)", event.Event, event.ID)
	}

	return c.NoContent(http.StatusOK)
}
