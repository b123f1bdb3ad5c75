package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

type CouponService interface {
	Create(ctx context.Context, req *CreateCouponRequest) (*models.Coupon, error)
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error)
	Update(ctx context.Context, req *UpdateCouponRequest) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error)
	// Redeem validates and consumes one use of the coupon, returning the
	// discount for the given subtotal.
	Redeem(ctx context.Context, tenantID uuid.UUID, code string, subtotal float64) (*models.Coupon, float64, error)
}

type couponService struct {
	couponRepo repositories.CouponRepository
}

func NewCouponService(couponRepo repositories.CouponRepository) CouponService {
	return &couponService{couponRepo: couponRepo}
}

type CreateCouponRequest struct {
	TenantID   uuid.UUID
	Code       string     `json:"code" validate:"required"`
	Type       string     `json:"type" validate:"required"`
	Value      float64    `json:"value" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at"`
	UsageLimit int        `json:"usage_limit"`
}

type UpdateCouponRequest struct {
	TenantID   uuid.UUID
	ID         uuid.UUID
	Code       string     `json:"code" validate:"required"`
	Type       string     `json:"type" validate:"required"`
	Value      float64    `json:"value" validate:"required"`
	ExpiresAt  *time.Time `json:"expires_at"`
	UsageLimit int        `json:"usage_limit"`
	Active     bool       `json:"active"`
}

func (s *couponService) Create(ctx context.Context, req *CreateCouponRequest) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, errors.New("code is required")
	}
	if err := validateCouponValue(req.Type, req.Value); err != nil {
		return nil, err
	}
	if _, err := s.couponRepo.GetByCode(ctx, req.TenantID, code); err == nil {
		return nil, fmt.Errorf("coupon %q already exists", code)
	}

	coupon := &models.Coupon{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		Code:       code,
		Type:       req.Type,
		Value:      req.Value,
		ExpiresAt:  req.ExpiresAt,
		UsageLimit: req.UsageLimit,
		Active:     true,
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *couponService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	return s.couponRepo.GetByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *couponService) Update(ctx context.Context, req *UpdateCouponRequest) error {
	existing, err := s.couponRepo.GetByCode(ctx, req.TenantID, strings.ToUpper(req.Code))
	if err != nil {
		return err
	}
	if existing.ID != req.ID {
		return errors.New("coupon code belongs to another coupon")
	}
	if err := validateCouponValue(req.Type, req.Value); err != nil {
		return err
	}

	existing.Type = req.Type
	existing.Value = req.Value
	existing.ExpiresAt = req.ExpiresAt
	existing.UsageLimit = req.UsageLimit
	existing.Active = req.Active

	return s.couponRepo.Update(ctx, existing)
}

func (s *couponService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.couponRepo.Delete(ctx, tenantID, id)
}

func (s *couponService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.couponRepo.List(ctx, tenantID, limit, offset)
}

func (s *couponService) Redeem(ctx context.Context, tenantID uuid.UUID, code string, subtotal float64) (*models.Coupon, float64, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, tenantID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, 0, fmt.Errorf("coupon not found")
	}
	if !coupon.Usable(time.Now()) {
		return nil, 0, errors.New("coupon is not usable")
	}
	if err := s.couponRepo.IncrementUsage(ctx, tenantID, coupon.ID); err != nil {
		return nil, 0, err
	}

	discount := couponDiscount(coupon, subtotal)
	return coupon, discount, nil
}

func couponDiscount(coupon *models.Coupon, subtotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponTypePercent:
		discount = subtotal * coupon.Value / 100
	case models.CouponTypeFixed:
		discount = coupon.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

func validateCouponValue(couponType string, value float64) error {
	switch couponType {
	case models.CouponTypePercent:
		if value <= 0 || value > 100 {
			return errors.New("percent value must be between 0 and 100")
		}
	case models.CouponTypeFixed:
		if value <= 0 {
			return errors.New("fixed value must be positive")
		}
	default:
		return fmt.Errorf("unknown coupon type %q", couponType)
	}
	return nil
}
