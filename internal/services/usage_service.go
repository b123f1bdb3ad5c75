package services

import (
	"context"
	"time"

	"crmhub/internal/caching"
	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

// UsageService reads and persists per-tenant API usage. The Redis
// counter is the month's running total and is what the limit is
// enforced against; RollupTenant snapshots it into Postgres so billing
// survives a cache flush. The counter itself lives until the key
// expires after month end.
type UsageService interface {
	CurrentUsage(ctx context.Context, tenantID uuid.UUID) (int64, error)
	History(ctx context.Context, tenantID uuid.UUID, months int) ([]*models.TenantUsage, error)
	RollupTenant(ctx context.Context, tenantID uuid.UUID) error
}

type usageService struct {
	usageRepo repositories.UsageRepository
	cache     caching.CacheService
}

func NewUsageService(usageRepo repositories.UsageRepository, cache caching.CacheService) UsageService {
	return &usageService{usageRepo: usageRepo, cache: cache}
}

func currentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

func (s *usageService) CurrentUsage(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	period := currentPeriod()
	if s.cache != nil {
		if count, err := s.cache.GetAPIUsage(ctx, tenantID, period); err == nil && count > 0 {
			return count, nil
		}
	}
	usage, err := s.usageRepo.GetForPeriod(ctx, tenantID, period)
	if err != nil {
		return 0, err
	}
	return usage.APICalls, nil
}

func (s *usageService) History(ctx context.Context, tenantID uuid.UUID, months int) ([]*models.TenantUsage, error) {
	if months <= 0 {
		months = 12
	}
	return s.usageRepo.ListForTenant(ctx, tenantID, months)
}

// RollupTenant snapshots the live Redis counter into the persistent
// row. The counter is left in place: it is the number the monthly
// limit is enforced against, so resetting it would hand an over-limit
// tenant a fresh allowance every rollup.
func (s *usageService) RollupTenant(ctx context.Context, tenantID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	period := currentPeriod()
	count, err := s.cache.GetAPIUsage(ctx, tenantID, period)
	if err != nil || count == 0 {
		return err
	}
	return s.usageRepo.RecordCalls(ctx, tenantID, period, count)
}
