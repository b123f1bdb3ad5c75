package tenancy

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNoTenant        = errors.New("no tenant identified on request")
	ErrUnknownTenant   = errors.New("tenant not found")
	ErrAmbiguousTenant = errors.New("subdomain and header identify different tenants")
	ErrTenantSuspended = errors.New("tenant is suspended")
	ErrTrialExpired    = errors.New("tenant trial has expired")
)

// Subdomains that never map to a tenant.
var reservedSubdomains = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
}

// ReservedSubdomain reports whether a subdomain can never be claimed by
// a tenant. Onboarding rejects these up front.
func ReservedSubdomain(sub string) bool {
	return reservedSubdomains[strings.ToLower(sub)]
}

// TenantCache is the subset of the cache layer the resolver needs.
// A nil cache disables caching.
type TenantCache interface {
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, bool)
	GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, bool)
	SetTenant(ctx context.Context, tenant *models.Tenant)
}

// Resolver maps an incoming request's host and tenant header to exactly
// one operational tenant, failing closed when the two disagree.
type Resolver struct {
	tenants    repositories.TenantRepository
	cache      TenantCache
	baseDomain string
	now        func() time.Time
}

func NewResolver(tenants repositories.TenantRepository, cache TenantCache, baseDomain string) *Resolver {
	return &Resolver{
		tenants:    tenants,
		cache:      cache,
		baseDomain: strings.ToLower(baseDomain),
		now:        time.Now,
	}
}

// SubdomainFromHost extracts the tenant subdomain from a request host.
// Returns "" when the host is the base domain itself, a reserved
// subdomain, or not under the base domain at all.
func (r *Resolver) SubdomainFromHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))

	if r.baseDomain == "" || host == r.baseDomain {
		return ""
	}
	suffix := "." + r.baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	sub := strings.TrimSuffix(host, suffix)
	// Nested subdomains (a.b.example.com) do not resolve to a tenant.
	if sub == "" || strings.Contains(sub, ".") {
		return ""
	}
	if reservedSubdomains[sub] {
		return ""
	}
	return sub
}

// Resolve identifies the tenant for a request from the host subdomain
// and the explicit tenant header. Precedence: when both are present they
// must agree, otherwise the request is rejected rather than guessing.
// The returned tenant is always operational; suspended and trial-expired
// tenants yield typed errors so the transport layer can map them.
func (r *Resolver) Resolve(ctx context.Context, host, headerTenantID string) (*models.Tenant, error) {
	sub := r.SubdomainFromHost(host)
	headerID, err := parseHeaderID(headerTenantID)
	if err != nil {
		return nil, err
	}

	var tenant *models.Tenant
	switch {
	case sub != "" && headerID != uuid.Nil:
		tenant, err = r.bySubdomain(ctx, sub)
		if err != nil {
			return nil, err
		}
		if tenant.ID != headerID {
			return nil, ErrAmbiguousTenant
		}
	case sub != "":
		tenant, err = r.bySubdomain(ctx, sub)
		if err != nil {
			return nil, err
		}
	case headerID != uuid.Nil:
		tenant, err = r.ByID(ctx, headerID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoTenant
	}

	return tenant, r.checkOperational(tenant)
}

// ByID resolves a tenant directly by id. Used by background jobs and
// webhook handlers, which carry a tenant id instead of a host.
func (r *Resolver) ByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if r.cache != nil {
		if tenant, ok := r.cache.GetTenantByID(ctx, id); ok {
			return tenant, nil
		}
	}
	tenant, err := r.tenants.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownTenant
	}
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.SetTenant(ctx, tenant)
	}
	return tenant, nil
}

// CheckOperational re-validates a previously resolved tenant. Jobs call
// this after re-fetching so a tenant suspended mid-run stops being served.
func (r *Resolver) CheckOperational(tenant *models.Tenant) error {
	return r.checkOperational(tenant)
}

func (r *Resolver) bySubdomain(ctx context.Context, sub string) (*models.Tenant, error) {
	if r.cache != nil {
		if tenant, ok := r.cache.GetTenantBySubdomain(ctx, sub); ok {
			return tenant, nil
		}
	}
	tenant, err := r.tenants.GetBySubdomain(ctx, sub)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownTenant
	}
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.SetTenant(ctx, tenant)
	}
	return tenant, nil
}

func (r *Resolver) checkOperational(tenant *models.Tenant) error {
	now := r.now()
	if tenant.TrialExpired(now) {
		return ErrTrialExpired
	}
	if !tenant.Operational(now) {
		return ErrTenantSuspended
	}
	return nil
}

func parseHeaderID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		// A malformed header names no tenant rather than a wrong one.
		return uuid.Nil, ErrUnknownTenant
	}
	return id, nil
}
