package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type MembershipRepository interface {
	Create(ctx context.Context, membership *models.Membership) error
	GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Membership, error)
	UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error
	TouchLastAccess(ctx context.Context, tenantID, userID uuid.UUID) error
	Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error
}

type membershipRepo struct {
	db Database
}

func NewMembershipRepo(db Database) MembershipRepository {
	return &membershipRepo{db: db}
}

func (r *membershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	query := `
		INSERT INTO memberships (id, tenant_id, user_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (tenant_id, user_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, membership.ID, membership.TenantID, membership.UserID, membership.Role, membership.Status)
	return err
}

func (r *membershipRepo) GetActive(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	membership := &models.Membership{}
	query := `
		SELECT id, tenant_id, user_id, role, status, last_access_at, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1 AND user_id = $2 AND status = 'active'
	`
	err := r.db.QueryRow(ctx, query, tenantID, userID).Scan(&membership.ID, &membership.TenantID, &membership.UserID,
		&membership.Role, &membership.Status, &membership.LastAccessAt, &membership.CreatedAt, &membership.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return membership, nil
}

func (r *membershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Membership, error) {
	query := `
		SELECT id, tenant_id, user_id, role, status, last_access_at, created_at, updated_at
		FROM memberships
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		membership := &models.Membership{}
		if err := rows.Scan(&membership.ID, &membership.TenantID, &membership.UserID, &membership.Role,
			&membership.Status, &membership.LastAccessAt, &membership.CreatedAt, &membership.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}

func (r *membershipRepo) UpdateRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	query := `
		UPDATE memberships
		SET role = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND user_id = $3
	`
	_, err := r.db.Exec(ctx, query, role, tenantID, userID)
	return err
}

func (r *membershipRepo) TouchLastAccess(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `
		UPDATE memberships
		SET last_access_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`
	_, err := r.db.Exec(ctx, query, tenantID, userID)
	return err
}

func (r *membershipRepo) Deactivate(ctx context.Context, tenantID, userID uuid.UUID) error {
	query := `
		UPDATE memberships
		SET status = 'inactive', updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2
	`
	_, err := r.db.Exec(ctx, query, tenantID, userID)
	return err
}
