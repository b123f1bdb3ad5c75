package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *models.Opportunity) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Opportunity, error)
	Update(ctx context.Context, opportunity *models.Opportunity) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Opportunity, error)
	SumWonAmount(ctx context.Context, tenantID uuid.UUID) (float64, error)
}

type opportunityRepo struct {
	db Database
}

func NewOpportunityRepo(db Database) OpportunityRepository {
	return &opportunityRepo{db: db}
}

func (r *opportunityRepo) Create(ctx context.Context, opportunity *models.Opportunity) error {
	query := `
		INSERT INTO opportunities (id, tenant_id, lead_id, owner_id, name, stage, amount, expected_close, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, opportunity.ID, opportunity.TenantID, opportunity.LeadID, opportunity.OwnerID,
		opportunity.Name, opportunity.Stage, opportunity.Amount, opportunity.ExpectedClose)
	return err
}

func (r *opportunityRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Opportunity, error) {
	opportunity := &models.Opportunity{}
	query := `
		SELECT id, tenant_id, lead_id, owner_id, name, stage, amount, expected_close, created_at, updated_at
		FROM opportunities
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&opportunity.ID, &opportunity.TenantID, &opportunity.LeadID,
		&opportunity.OwnerID, &opportunity.Name, &opportunity.Stage, &opportunity.Amount, &opportunity.ExpectedClose,
		&opportunity.CreatedAt, &opportunity.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return opportunity, nil
}

func (r *opportunityRepo) Update(ctx context.Context, opportunity *models.Opportunity) error {
	query := `
		UPDATE opportunities
		SET lead_id = $1, owner_id = $2, name = $3, stage = $4, amount = $5, expected_close = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, opportunity.LeadID, opportunity.OwnerID, opportunity.Name, opportunity.Stage,
		opportunity.Amount, opportunity.ExpectedClose, opportunity.TenantID, opportunity.ID)
	return err
}

func (r *opportunityRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM opportunities WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *opportunityRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Opportunity, error) {
	query := `
		SELECT id, tenant_id, lead_id, owner_id, name, stage, amount, expected_close, created_at, updated_at
		FROM opportunities
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opportunities []*models.Opportunity
	for rows.Next() {
		opportunity := &models.Opportunity{}
		if err := rows.Scan(&opportunity.ID, &opportunity.TenantID, &opportunity.LeadID, &opportunity.OwnerID,
			&opportunity.Name, &opportunity.Stage, &opportunity.Amount, &opportunity.ExpectedClose,
			&opportunity.CreatedAt, &opportunity.UpdatedAt); err != nil {
			return nil, err
		}
		opportunities = append(opportunities, opportunity)
	}
	return opportunities, rows.Err()
}

func (r *opportunityRepo) SumWonAmount(ctx context.Context, tenantID uuid.UUID) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM opportunities
		WHERE tenant_id = $1 AND stage = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, models.OpportunityStageWon).Scan(&total)
	return total, err
}
