package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Lead, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Lead, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	UpdateScore(ctx context.Context, tenantID, id uuid.UUID, score int) error
}

type leadRepo struct {
	db Database
}

func NewLeadRepo(db Database) LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, tenant_id, owner_id, first_name, last_name, email, phone, company, source, status, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, lead.ID, lead.TenantID, lead.OwnerID, lead.FirstName, lead.LastName,
		lead.Email, lead.Phone, lead.Company, lead.Source, lead.Status, lead.Score)
	return err
}

func (r *leadRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error) {
	lead := &models.Lead{}
	query := `
		SELECT id, tenant_id, owner_id, first_name, last_name, email, phone, company, source, status, score, created_at, updated_at
		FROM leads
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&lead.ID, &lead.TenantID, &lead.OwnerID, &lead.FirstName,
		&lead.LastName, &lead.Email, &lead.Phone, &lead.Company, &lead.Source, &lead.Status, &lead.Score,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads
		SET owner_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5, company = $6, source = $7, status = $8, score = $9, updated_at = NOW()
		WHERE tenant_id = $10 AND id = $11
	`
	_, err := r.db.Exec(ctx, query, lead.OwnerID, lead.FirstName, lead.LastName, lead.Email, lead.Phone,
		lead.Company, lead.Source, lead.Status, lead.Score, lead.TenantID, lead.ID)
	return err
}

func (r *leadRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM leads WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *leadRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Lead, error) {
	query := `
		SELECT id, tenant_id, owner_id, first_name, last_name, email, phone, company, source, status, score, created_at, updated_at
		FROM leads
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *leadRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Lead, error) {
	query := `
		SELECT id, tenant_id, owner_id, first_name, last_name, email, phone, company, source, status, score, created_at, updated_at
		FROM leads
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

func (r *leadRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM leads
		WHERE tenant_id = $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *leadRepo) UpdateScore(ctx context.Context, tenantID, id uuid.UUID, score int) error {
	query := `
		UPDATE leads
		SET score = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	_, err := r.db.Exec(ctx, query, score, tenantID, id)
	return err
}

func scanLeads(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.Lead, error) {
	var leads []*models.Lead
	for rows.Next() {
		lead := &models.Lead{}
		if err := rows.Scan(&lead.ID, &lead.TenantID, &lead.OwnerID, &lead.FirstName, &lead.LastName,
			&lead.Email, &lead.Phone, &lead.Company, &lead.Source, &lead.Status, &lead.Score,
			&lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
