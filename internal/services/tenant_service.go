package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmhub/internal/authz"
	"crmhub/internal/caching"
	"crmhub/internal/common"
	"crmhub/internal/models"
	"crmhub/internal/repositories"
	"crmhub/internal/tenancy"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTrialDays           = 14
	defaultMaxUsers            = 5
	defaultMaxAPICallsPerMonth = 100000
)

type TenantService interface {
	Onboard(ctx context.Context, req *OnboardTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo     repositories.TenantRepository
	userRepo       repositories.UserRepository
	membershipRepo repositories.MembershipRepository
	engine         *authz.Engine
	router         *tenancy.ScopeRouter
	cache          caching.CacheService
}

func NewTenantService(
	tenantRepo repositories.TenantRepository,
	userRepo repositories.UserRepository,
	membershipRepo repositories.MembershipRepository,
	engine *authz.Engine,
	router *tenancy.ScopeRouter,
	cache caching.CacheService,
) TenantService {
	return &tenantService{
		tenantRepo:     tenantRepo,
		userRepo:       userRepo,
		membershipRepo: membershipRepo,
		engine:         engine,
		router:         router,
		cache:          cache,
	}
}

type OnboardTenantRequest struct {
	Name           string `json:"name" validate:"required"`
	Subdomain      string `json:"subdomain" validate:"required"`
	Plan           string `json:"plan"`
	OwnerEmail     string `json:"owner_email" validate:"required"`
	OwnerPassword  string `json:"owner_password" validate:"required"`
	OwnerFirstName string `json:"owner_first_name"`
	OwnerLastName  string `json:"owner_last_name"`
}

type UpdateTenantRequest struct {
	ID       uuid.UUID
	Name     string       `json:"name" validate:"required"`
	Plan     string       `json:"plan"`
	Status   string       `json:"status" validate:"required"`
	MaxUsers int          `json:"max_users"`
	Settings models.JSONB `json:"settings"`
}

// Onboard creates a tenant in trial status together with its owner
// account, membership, and baseline policies. In schema mode the
// tenant's schema is provisioned before the tenant becomes reachable.
func (s *tenantService) Onboard(ctx context.Context, req *OnboardTenantRequest) (*models.Tenant, error) {
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, err
	}
	sub := strings.ToLower(strings.TrimSpace(req.Subdomain))
	if err := common.ValidateSubdomain(sub); err != nil {
		return nil, err
	}
	if tenancy.ReservedSubdomain(sub) {
		return nil, fmt.Errorf("subdomain %q is reserved", sub)
	}
	if err := common.ValidateRequiredString(req.OwnerEmail, "owner_email"); err != nil {
		return nil, err
	}
	if len(req.OwnerPassword) < 8 {
		return nil, errors.New("owner_password must be at least 8 characters")
	}
	if _, err := s.tenantRepo.GetBySubdomain(ctx, sub); err == nil {
		return nil, fmt.Errorf("subdomain %q is already taken", sub)
	}

	plan := req.Plan
	if plan == "" {
		plan = "trial"
	}
	trialEnds := time.Now().AddDate(0, 0, defaultTrialDays)

	tenant := &models.Tenant{
		ID:                  uuid.New(),
		Name:                req.Name,
		Subdomain:           sub,
		SchemaName:          "tenant_" + strings.ReplaceAll(sub, "-", "_"),
		Plan:                plan,
		Status:              models.TenantStatusTrial,
		TrialEndsAt:         &trialEnds,
		MaxUsers:            defaultMaxUsers,
		MaxAPICallsPerMonth: defaultMaxAPICallsPerMonth,
		Settings:            models.JSONB{},
	}

	if err := s.router.ProvisionSchema(ctx, tenant); err != nil {
		return nil, fmt.Errorf("provision schema: %w", err)
	}
	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.OwnerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	owner := &models.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        strings.ToLower(req.OwnerEmail),
		PasswordHash: string(hash),
		FirstName:    req.OwnerFirstName,
		LastName:     req.OwnerLastName,
		Status:       "active",
	}
	if err := s.userRepo.Create(ctx, owner); err != nil {
		return nil, err
	}

	membership := &models.Membership{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		UserID:   owner.ID,
		Role:     models.RoleOwner,
		Status:   "active",
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}

	if err := s.engine.SeedDefaults(ctx, tenant.ID); err != nil {
		return nil, err
	}

	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	if subdomain == "" {
		return nil, errors.New("subdomain is required")
	}
	return s.tenantRepo.GetBySubdomain(ctx, subdomain)
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) error {
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}

	existing.Name = req.Name
	if req.Plan != "" {
		existing.Plan = req.Plan
	}
	if req.Status != "" {
		existing.Status = req.Status
	}
	if req.MaxUsers > 0 {
		existing.MaxUsers = req.MaxUsers
	}
	if req.Settings != nil {
		existing.Settings = req.Settings
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTenant(ctx, existing)
	}
	return nil
}

// Deactivate suspends the tenant and stamps deleted_at. Data is kept;
// the tenant simply stops resolving.
func (s *tenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	existing, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.Deactivate(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTenant(ctx, existing)
		_ = s.cache.InvalidateTenantCache(ctx, id)
	}
	return nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.tenantRepo.List(ctx, limit, offset)
}
