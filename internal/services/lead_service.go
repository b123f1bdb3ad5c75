package services

import (
	"context"
	"errors"
	"fmt"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

// Allowed lead status transitions. Converted and lost are terminal.
var leadTransitions = map[string][]string{
	models.LeadStatusNew:       {models.LeadStatusContacted, models.LeadStatusLost},
	models.LeadStatusContacted: {models.LeadStatusQualified, models.LeadStatusLost},
	models.LeadStatusQualified: {models.LeadStatusConverted, models.LeadStatusLost},
}

type LeadService interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*models.Lead, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, req *UpdateLeadRequest) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Lead, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	Convert(ctx context.Context, req *ConvertLeadRequest) (*models.Opportunity, error)
	RefreshScores(ctx context.Context, tenantID uuid.UUID) error
}

type leadService struct {
	leadRepo        repositories.LeadRepository
	opportunityRepo repositories.OpportunityRepository
}

func NewLeadService(leadRepo repositories.LeadRepository, opportunityRepo repositories.OpportunityRepository) LeadService {
	return &leadService{leadRepo: leadRepo, opportunityRepo: opportunityRepo}
}

type CreateLeadRequest struct {
	TenantID  uuid.UUID
	OwnerID   *uuid.UUID `json:"owner_id"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Email     string     `json:"email" validate:"required"`
	Phone     *string    `json:"phone"`
	Company   *string    `json:"company"`
	Source    *string    `json:"source"`
}

type UpdateLeadRequest struct {
	TenantID  uuid.UUID
	ID        uuid.UUID
	OwnerID   *uuid.UUID `json:"owner_id"`
	FirstName string     `json:"first_name" validate:"required"`
	LastName  string     `json:"last_name" validate:"required"`
	Email     string     `json:"email" validate:"required"`
	Phone     *string    `json:"phone"`
	Company   *string    `json:"company"`
	Source    *string    `json:"source"`
}

type ConvertLeadRequest struct {
	TenantID uuid.UUID
	LeadID   uuid.UUID
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
}

func (s *leadService) Create(ctx context.Context, req *CreateLeadRequest) (*models.Lead, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return nil, errors.New("first_name, last_name and email are required")
	}

	lead := &models.Lead{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		OwnerID:   req.OwnerID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Source:    req.Source,
		Status:    models.LeadStatusNew,
		Score:     scoreLead(req.Phone, req.Company, req.Source),
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *leadService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error) {
	return s.leadRepo.GetByID(ctx, tenantID, id)
}

func (s *leadService) Update(ctx context.Context, req *UpdateLeadRequest) error {
	existing, err := s.leadRepo.GetByID(ctx, req.TenantID, req.ID)
	if err != nil {
		return err
	}

	existing.OwnerID = req.OwnerID
	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.Company = req.Company
	existing.Source = req.Source
	existing.Score = scoreLead(req.Phone, req.Company, req.Source)

	return s.leadRepo.Update(ctx, existing)
}

func (s *leadService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.leadRepo.Delete(ctx, tenantID, id)
}

func (s *leadService) List(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*models.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if status != "" {
		return s.leadRepo.ListByStatus(ctx, tenantID, status, limit, offset)
	}
	return s.leadRepo.List(ctx, tenantID, limit, offset)
}

func (s *leadService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	existing, err := s.leadRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !validLeadTransition(existing.Status, status) {
		return fmt.Errorf("cannot move lead from %s to %s", existing.Status, status)
	}
	existing.Status = status
	return s.leadRepo.Update(ctx, existing)
}

// Convert marks a qualified lead as converted and opens an opportunity
// carrying the lead's context.
func (s *leadService) Convert(ctx context.Context, req *ConvertLeadRequest) (*models.Opportunity, error) {
	lead, err := s.leadRepo.GetByID(ctx, req.TenantID, req.LeadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != models.LeadStatusQualified {
		return nil, fmt.Errorf("lead must be qualified before conversion, is %s", lead.Status)
	}

	name := req.Name
	if name == "" {
		name = lead.FirstName + " " + lead.LastName
		if lead.Company != nil && *lead.Company != "" {
			name = *lead.Company
		}
	}

	opportunity := &models.Opportunity{
		ID:       uuid.New(),
		TenantID: req.TenantID,
		LeadID:   &lead.ID,
		OwnerID:  lead.OwnerID,
		Name:     name,
		Stage:    models.OpportunityStageProspecting,
		Amount:   req.Amount,
	}
	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, err
	}

	lead.Status = models.LeadStatusConverted
	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	return opportunity, nil
}

// RefreshScores recomputes scores for the tenant's open leads. Run by
// the scheduler, not by request handlers.
func (s *leadService) RefreshScores(ctx context.Context, tenantID uuid.UUID) error {
	const batch = 200
	for offset := 0; ; offset += batch {
		leads, err := s.leadRepo.List(ctx, tenantID, batch, offset)
		if err != nil {
			return err
		}
		for _, lead := range leads {
			if lead.Status == models.LeadStatusConverted || lead.Status == models.LeadStatusLost {
				continue
			}
			score := scoreLead(lead.Phone, lead.Company, lead.Source)
			if score != lead.Score {
				if err := s.leadRepo.UpdateScore(ctx, tenantID, lead.ID, score); err != nil {
					return err
				}
			}
		}
		if len(leads) < batch {
			return nil
		}
	}
}

func validLeadTransition(from, to string) bool {
	for _, allowed := range leadTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// scoreLead is a simple completeness score: richer leads rank higher.
func scoreLead(phone, company, source *string) int {
	score := 10
	if phone != nil && *phone != "" {
		score += 20
	}
	if company != nil && *company != "" {
		score += 30
	}
	if source != nil && *source != "" {
		score += 10
	}
	return score
}
