package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

// Allowed stage transitions. Won and lost are terminal.
var opportunityTransitions = map[string][]string{
	models.OpportunityStageProspecting: {models.OpportunityStageProposal, models.OpportunityStageLost},
	models.OpportunityStageProposal:    {models.OpportunityStageNegotiation, models.OpportunityStageLost},
	models.OpportunityStageNegotiation: {models.OpportunityStageWon, models.OpportunityStageLost},
}

type OpportunityService interface {
	Create(ctx context.Context, req *CreateOpportunityRequest) (*models.Opportunity, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Opportunity, error)
	Update(ctx context.Context, req *UpdateOpportunityRequest) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Opportunity, error)
	MoveStage(ctx context.Context, tenantID, id uuid.UUID, stage string) error
}

type opportunityService struct {
	opportunityRepo repositories.OpportunityRepository
}

func NewOpportunityService(opportunityRepo repositories.OpportunityRepository) OpportunityService {
	return &opportunityService{opportunityRepo: opportunityRepo}
}

type CreateOpportunityRequest struct {
	TenantID      uuid.UUID
	LeadID        *uuid.UUID `json:"lead_id"`
	OwnerID       *uuid.UUID `json:"owner_id"`
	Name          string     `json:"name" validate:"required"`
	Amount        float64    `json:"amount"`
	ExpectedClose *time.Time `json:"expected_close"`
}

type UpdateOpportunityRequest struct {
	TenantID      uuid.UUID
	ID            uuid.UUID
	OwnerID       *uuid.UUID `json:"owner_id"`
	Name          string     `json:"name" validate:"required"`
	Amount        float64    `json:"amount"`
	ExpectedClose *time.Time `json:"expected_close"`
}

func (s *opportunityService) Create(ctx context.Context, req *CreateOpportunityRequest) (*models.Opportunity, error) {
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Amount < 0 {
		return nil, errors.New("amount cannot be negative")
	}

	opportunity := &models.Opportunity{
		ID:            uuid.New(),
		TenantID:      req.TenantID,
		LeadID:        req.LeadID,
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		Stage:         models.OpportunityStageProspecting,
		Amount:        req.Amount,
		ExpectedClose: req.ExpectedClose,
	}
	if err := s.opportunityRepo.Create(ctx, opportunity); err != nil {
		return nil, err
	}
	return opportunity, nil
}

func (s *opportunityService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Opportunity, error) {
	return s.opportunityRepo.GetByID(ctx, tenantID, id)
}

func (s *opportunityService) Update(ctx context.Context, req *UpdateOpportunityRequest) error {
	existing, err := s.opportunityRepo.GetByID(ctx, req.TenantID, req.ID)
	if err != nil {
		return err
	}
	if req.Amount < 0 {
		return errors.New("amount cannot be negative")
	}

	existing.OwnerID = req.OwnerID
	existing.Name = req.Name
	existing.Amount = req.Amount
	existing.ExpectedClose = req.ExpectedClose

	return s.opportunityRepo.Update(ctx, existing)
}

func (s *opportunityService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.opportunityRepo.Delete(ctx, tenantID, id)
}

func (s *opportunityService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.opportunityRepo.List(ctx, tenantID, limit, offset)
}

func (s *opportunityService) MoveStage(ctx context.Context, tenantID, id uuid.UUID, stage string) error {
	existing, err := s.opportunityRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !validStageTransition(existing.Stage, stage) {
		return fmt.Errorf("cannot move opportunity from %s to %s", existing.Stage, stage)
	}
	existing.Stage = stage
	return s.opportunityRepo.Update(ctx, existing)
}

func validStageTransition(from, to string) bool {
	for _, allowed := range opportunityTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
