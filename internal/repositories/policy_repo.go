package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type PolicyRepository interface {
	Create(ctx context.Context, policy *models.Policy) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Policy, error)
}

type policyRepo struct {
	db Database
}

func NewPolicyRepo(db Database) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) Create(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policies (id, tenant_id, role, resource, action, effect, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id, role, resource, action) DO UPDATE SET effect = EXCLUDED.effect
	`
	_, err := r.db.Exec(ctx, query, policy.ID, policy.TenantID, policy.Role, policy.Resource,
		policy.Action, policy.Effect)
	return err
}

func (r *policyRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM policies WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *policyRepo) ListByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]*models.Policy, error) {
	query := `
		SELECT id, tenant_id, role, resource, action, effect, created_at
		FROM policies
		WHERE tenant_id = $1 AND role = $2
	`
	rows, err := r.db.Query(ctx, query, tenantID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPolicies(rows)
}

func (r *policyRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.Policy, error) {
	query := `
		SELECT id, tenant_id, role, resource, action, effect, created_at
		FROM policies
		WHERE tenant_id = $1
		ORDER BY role, resource, action
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPolicies(rows)
}

func scanPolicies(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.Policy, error) {
	var policies []*models.Policy
	for rows.Next() {
		policy := &models.Policy{}
		if err := rows.Scan(&policy.ID, &policy.TenantID, &policy.Role, &policy.Resource,
			&policy.Action, &policy.Effect, &policy.CreatedAt); err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}
