package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"crmhub/internal/common"
	"crmhub/internal/services"
	"crmhub/internal/tenancy"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type definitions
const (
	TypeWelcomeEmail      = "email:welcome"
	TypeOrderConfirmation = "email:order_confirmation"
)

// Enqueuer is the producer side of the task queue. *asynq.Client
// satisfies it; handlers depend on this so tests can capture what was
// enqueued.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// WelcomeEmailPayload carries the tenant id explicitly: a queued task
// has no request to resolve a tenant from, so the handler re-resolves
// and re-validates the tenant before touching its data.
type WelcomeEmailPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
}

type OrderConfirmationPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	OrderID  uuid.UUID `json:"order_id"`
}

func NewWelcomeEmailTask(tenantID, userID uuid.UUID, email string) (*asynq.Task, error) {
	payload := WelcomeEmailPayload{TenantID: tenantID, UserID: userID, Email: email}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWelcomeEmail, data), nil
}

func NewOrderConfirmationTask(tenantID, orderID uuid.UUID) (*asynq.Task, error) {
	payload := OrderConfirmationPayload{TenantID: tenantID, OrderID: orderID}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderConfirmation, data), nil
}

// TaskProcessor handles queued tasks. Every handler re-resolves the
// tenant by id, checks it is still operational, and binds a scope
// before doing tenant work.
type TaskProcessor struct {
	resolver *tenancy.Resolver
	router   *tenancy.ScopeRouter
	orderSvc services.OrderService
	userSvc  services.UserService
}

func NewTaskProcessor(resolver *tenancy.Resolver, router *tenancy.ScopeRouter, orderSvc services.OrderService, userSvc services.UserService) *TaskProcessor {
	return &TaskProcessor{resolver: resolver, router: router, orderSvc: orderSvc, userSvc: userSvc}
}

// RegisterHandlers wires the processor's handlers into an asynq mux.
func (p *TaskProcessor) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeWelcomeEmail, p.HandleWelcomeEmail)
	mux.HandleFunc(TypeOrderConfirmation, p.HandleOrderConfirmation)
}

func (p *TaskProcessor) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %w", err)
	}

	ctx, release, err := p.bindTenant(ctx, payload.TenantID)
	if err != nil {
		return err
	}
	defer release()

	user, err := p.userSvc.GetByID(ctx, payload.TenantID, payload.UserID)
	if err != nil {
		return fmt.Errorf("user %s not found in tenant %s: %w", payload.UserID, payload.TenantID, err)
	}

	// Mail delivery is out of band; log the send for now.
	log.Printf("Sending welcome email to %s (tenant %s)", user.Email, payload.TenantID)
	return nil
}

func (p *TaskProcessor) HandleOrderConfirmation(ctx context.Context, t *asynq.Task) error {
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal order confirmation payload: %w", err)
	}

	ctx, release, err := p.bindTenant(ctx, payload.TenantID)
	if err != nil {
		return err
	}
	defer release()

	order, err := p.orderSvc.GetByID(ctx, payload.TenantID, payload.OrderID)
	if err != nil {
		return fmt.Errorf("order %s not found in tenant %s: %w", payload.OrderID, payload.TenantID, err)
	}

	log.Printf("Sending order confirmation for order %s, total %.2f (tenant %s)", order.ID, order.Total, payload.TenantID)
	return nil
}

// bindTenant re-resolves the tenant and binds a scope for the task. A
// tenant that was suspended after the task was enqueued fails here,
// which drops the task rather than serving a dead tenant.
func (p *TaskProcessor) bindTenant(ctx context.Context, tenantID uuid.UUID) (context.Context, func(), error) {
	tenant, err := p.resolver.ByID(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	if err := p.resolver.CheckOperational(tenant); err != nil {
		return nil, nil, fmt.Errorf("tenant %s no longer operational: %w", tenantID, err)
	}

	scope, err := p.router.Bind(ctx, tenant)
	if err != nil {
		return nil, nil, err
	}

	bound := tenancy.WithScope(ctx, scope)
	bound = common.WithTenantID(bound, tenant.ID)
	return bound, func() { scope.Release(ctx) }, nil
}
