package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Invite(ctx context.Context, req *InviteUserRequest) (*models.User, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, req *UpdateUserRequest) error
	Remove(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error)
	ChangeRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error
}

type userService struct {
	userRepo       repositories.UserRepository
	membershipRepo repositories.MembershipRepository
	tenantRepo     repositories.TenantRepository
}

func NewUserService(userRepo repositories.UserRepository, membershipRepo repositories.MembershipRepository, tenantRepo repositories.TenantRepository) UserService {
	return &userService{userRepo: userRepo, membershipRepo: membershipRepo, tenantRepo: tenantRepo}
}

type InviteUserRequest struct {
	TenantID  uuid.UUID
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type UpdateUserRequest struct {
	TenantID  uuid.UUID
	ID        uuid.UUID
	Email     string `json:"email" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
}

// Invite creates a user inside the tenant, bounded by the tenant's seat
// limit.
func (s *userService) Invite(ctx context.Context, req *InviteUserRequest) (*models.User, error) {
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, fmt.Errorf("cannot invite with role %q", role)
	}

	tenant, err := s.tenantRepo.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	count, err := s.userRepo.CountByTenant(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.MaxUsers > 0 && count >= tenant.MaxUsers {
		return nil, fmt.Errorf("tenant has reached its limit of %d users", tenant.MaxUsers)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.userRepo.GetByEmail(ctx, req.TenantID, email); err == nil {
		return nil, fmt.Errorf("user %s already exists", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Status:       "active",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	membership := &models.Membership{
		ID:       uuid.New(),
		TenantID: req.TenantID,
		UserID:   user.ID,
		Role:     role,
		Status:   "active",
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, tenantID, id)
}

func (s *userService) Update(ctx context.Context, req *UpdateUserRequest) error {
	existing, err := s.userRepo.GetByID(ctx, req.TenantID, req.ID)
	if err != nil {
		return err
	}

	existing.Email = strings.ToLower(req.Email)
	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	if req.Status != "" {
		existing.Status = req.Status
	}

	return s.userRepo.Update(ctx, existing)
}

// Remove deactivates the membership and deletes the user record.
func (s *userService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.membershipRepo.Deactivate(ctx, tenantID, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, tenantID, id)
}

func (s *userService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.userRepo.List(ctx, tenantID, limit, offset)
}

func (s *userService) ChangeRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	if role != models.RoleOwner && role != models.RoleAdmin && role != models.RoleMember {
		return fmt.Errorf("unknown role %q", role)
	}
	return s.membershipRepo.UpdateRole(ctx, tenantID, userID, role)
}
