package analytics

import (
	"context"
	"time"

	"crmhub/internal/caching"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

const cacheTTL = 15 * time.Minute

// Service aggregates per-tenant CRM and commerce metrics. Results are
// cached per tenant; Refresh recomputes and replaces the cached copy.
type Service interface {
	TenantDashboard(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error)
	Refresh(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error)
}

type service struct {
	leadRepo        repositories.LeadRepository
	opportunityRepo repositories.OpportunityRepository
	orderRepo       repositories.OrderRepository
	cache           caching.CacheService
}

func NewService(
	leadRepo repositories.LeadRepository,
	opportunityRepo repositories.OpportunityRepository,
	orderRepo repositories.OrderRepository,
	cache caching.CacheService,
) Service {
	return &service{
		leadRepo:        leadRepo,
		opportunityRepo: opportunityRepo,
		orderRepo:       orderRepo,
		cache:           cache,
	}
}

func (s *service) TenantDashboard(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTenantAnalytics(ctx, tenantID); err == nil && cached != nil {
			return cached, nil
		}
	}
	return s.Refresh(ctx, tenantID)
}

func (s *service) Refresh(ctx context.Context, tenantID uuid.UUID) (map[string]interface{}, error) {
	leadCounts, err := s.leadRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	wonAmount, err := s.opportunityRepo.SumWonAmount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.orderRepo.SumRevenue(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	orderCounts, err := s.orderRepo.CountByStatus(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	totalLeads := 0
	for _, n := range leadCounts {
		totalLeads += n
	}
	converted := leadCounts["converted"]
	var conversionRate float64
	if totalLeads > 0 {
		conversionRate = float64(converted) / float64(totalLeads)
	}

	dashboard := map[string]interface{}{
		"leads_by_status":  leadCounts,
		"total_leads":      totalLeads,
		"conversion_rate":  conversionRate,
		"won_pipeline":     wonAmount,
		"order_revenue":    revenue,
		"orders_by_status": orderCounts,
		"generated_at":     time.Now().UTC().Format(time.RFC3339),
	}

	if s.cache != nil {
		_ = s.cache.SetTenantAnalytics(ctx, tenantID, dashboard, cacheTTL)
	}
	return dashboard, nil
}
