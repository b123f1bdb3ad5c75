package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UsageRepository interface {
	RecordCalls(ctx context.Context, tenantID uuid.UUID, period string, calls int64) error
	GetForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (*models.TenantUsage, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.TenantUsage, error)
}

type usageRepo struct {
	db Database
}

func NewUsageRepo(db Database) UsageRepository {
	return &usageRepo{db: db}
}

// RecordCalls upserts the billing-month snapshot for the tenant. The
// snapshot is an absolute count; a lower value never overwrites a higher
// one, so a Redis counter that restarted mid-month cannot shrink billing.
func (r *usageRepo) RecordCalls(ctx context.Context, tenantID uuid.UUID, period string, calls int64) error {
	query := `
		INSERT INTO tenant_usage (id, tenant_id, period, api_calls, recorded_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (tenant_id, period)
		DO UPDATE SET api_calls = GREATEST(tenant_usage.api_calls, EXCLUDED.api_calls), recorded_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, uuid.New(), tenantID, period, calls)
	return err
}

func (r *usageRepo) GetForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (*models.TenantUsage, error) {
	usage := &models.TenantUsage{}
	query := `
		SELECT id, tenant_id, period, api_calls, recorded_at
		FROM tenant_usage
		WHERE tenant_id = $1 AND period = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, period).Scan(&usage.ID, &usage.TenantID, &usage.Period,
		&usage.APICalls, &usage.RecordedAt)
	if err == pgx.ErrNoRows {
		return &models.TenantUsage{TenantID: tenantID, Period: period}, nil
	}
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *usageRepo) ListForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.TenantUsage, error) {
	query := `
		SELECT id, tenant_id, period, api_calls, recorded_at
		FROM tenant_usage
		WHERE tenant_id = $1
		ORDER BY period DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []*models.TenantUsage
	for rows.Next() {
		usage := &models.TenantUsage{}
		if err := rows.Scan(&usage.ID, &usage.TenantID, &usage.Period, &usage.APICalls, &usage.RecordedAt); err != nil {
			return nil, err
		}
		usages = append(usages, usage)
	}
	return usages, rows.Err()
}
