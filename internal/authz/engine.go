package authz

import (
	"context"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

// PolicyCache caches a role's policy set per tenant. Nil disables caching.
type PolicyCache interface {
	GetPolicies(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, bool)
	SetPolicies(ctx context.Context, tenantID uuid.UUID, role string, policies []*models.Policy)
	InvalidatePolicies(ctx context.Context, tenantID uuid.UUID)
}

// Engine evaluates authorization decisions from policy rows. All
// permission checks in the system go through Allowed; there is no
// per-resource permission code.
type Engine struct {
	policies repositories.PolicyRepository
	cache    PolicyCache
}

func NewEngine(policies repositories.PolicyRepository, cache PolicyCache) *Engine {
	return &Engine{policies: policies, cache: cache}
}

// Allowed decides whether role may perform action on resource within the
// tenant. Deny rules override allow rules; with no matching rule the
// decision is deny. The wildcard "*" matches any resource or action.
func (e *Engine) Allowed(ctx context.Context, tenantID uuid.UUID, role, resource, action string) (bool, error) {
	rules, err := e.rulesForRole(ctx, tenantID, role)
	if err != nil {
		return false, err
	}

	allowed := false
	for _, rule := range rules {
		if !matches(rule.Resource, resource) || !matches(rule.Action, action) {
			continue
		}
		if rule.Effect == models.PolicyEffectDeny {
			return false, nil
		}
		if rule.Effect == models.PolicyEffectAllow {
			allowed = true
		}
	}
	return allowed, nil
}

// Grant writes an allow rule and invalidates the tenant's cached policies.
func (e *Engine) Grant(ctx context.Context, tenantID uuid.UUID, role, resource, action string) error {
	return e.put(ctx, tenantID, role, resource, action, models.PolicyEffectAllow)
}

// Deny writes a deny rule and invalidates the tenant's cached policies.
func (e *Engine) Deny(ctx context.Context, tenantID uuid.UUID, role, resource, action string) error {
	return e.put(ctx, tenantID, role, resource, action, models.PolicyEffectDeny)
}

// SeedDefaults installs the baseline policy set for a new tenant:
// owners and admins get everything, members get read plus CRM writes.
func (e *Engine) SeedDefaults(ctx context.Context, tenantID uuid.UUID) error {
	defaults := []struct {
		role, resource, action, effect string
	}{
		{models.RoleOwner, "*", "*", models.PolicyEffectAllow},
		{models.RoleAdmin, "*", "*", models.PolicyEffectAllow},
		{models.RoleAdmin, "tenant", "delete", models.PolicyEffectDeny},
		{models.RoleMember, "*", "read", models.PolicyEffectAllow},
		{models.RoleMember, "lead", "*", models.PolicyEffectAllow},
		{models.RoleMember, "opportunity", "*", models.PolicyEffectAllow},
		{models.RoleMember, "order", "create", models.PolicyEffectAllow},
		{models.RoleMember, "review", "create", models.PolicyEffectAllow},
	}
	for _, d := range defaults {
		policy := &models.Policy{
			ID:       uuid.New(),
			TenantID: tenantID,
			Role:     d.role,
			Resource: d.resource,
			Action:   d.action,
			Effect:   d.effect,
		}
		if err := e.policies.Create(ctx, policy); err != nil {
			return err
		}
	}
	if e.cache != nil {
		e.cache.InvalidatePolicies(ctx, tenantID)
	}
	return nil
}

func (e *Engine) put(ctx context.Context, tenantID uuid.UUID, role, resource, action, effect string) error {
	policy := &models.Policy{
		ID:       uuid.New(),
		TenantID: tenantID,
		Role:     role,
		Resource: resource,
		Action:   action,
		Effect:   effect,
	}
	if err := e.policies.Create(ctx, policy); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.InvalidatePolicies(ctx, tenantID)
	}
	return nil
}

func (e *Engine) rulesForRole(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, error) {
	if e.cache != nil {
		if rules, ok := e.cache.GetPolicies(ctx, tenantID, role); ok {
			return rules, nil
		}
	}
	rules, err := e.policies.ListByRole(ctx, tenantID, role)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.SetPolicies(ctx, tenantID, role, rules)
	}
	return rules, nil
}

func matches(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
