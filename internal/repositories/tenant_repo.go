package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db Database
}

func NewTenantRepo(db Database) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, subdomain, schema_name, plan, status, trial_ends_at, max_users, max_api_calls_per_month, settings, created_at, updated_at, deleted_at`

func (r *tenantRepo) scanTenant(row interface{ Scan(...any) error }) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.SchemaName, &tenant.Plan, &tenant.Status,
		&tenant.TrialEndsAt, &tenant.MaxUsers, &tenant.MaxAPICallsPerMonth, &tenant.Settings,
		&tenant.CreatedAt, &tenant.UpdatedAt, &tenant.DeletedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, subdomain, schema_name, plan, status, trial_ends_at, max_users, max_api_calls_per_month, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Subdomain, tenant.SchemaName, tenant.Plan,
		tenant.Status, tenant.TrialEndsAt, tenant.MaxUsers, tenant.MaxAPICallsPerMonth, tenant.Settings)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1
	`
	return r.scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE subdomain = $1
	`
	return r.scanTenant(r.db.QueryRow(ctx, query, subdomain))
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, subdomain = $2, plan = $3, status = $4, trial_ends_at = $5, max_users = $6, max_api_calls_per_month = $7, settings = $8, updated_at = NOW()
		WHERE id = $9
	`
	_, err := r.db.Exec(ctx, query, tenant.Name, tenant.Subdomain, tenant.Plan, tenant.Status,
		tenant.TrialEndsAt, tenant.MaxUsers, tenant.MaxAPICallsPerMonth, tenant.Settings, tenant.ID)
	return err
}

// Deactivate suspends a tenant in place. Tenant rows are never deleted.
func (r *tenantRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tenants
		SET status = $1, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, models.TenantStatusSuspended, id)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
