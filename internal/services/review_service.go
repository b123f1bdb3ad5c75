package services

import (
	"context"
	"errors"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

type ReviewService interface {
	Create(ctx context.Context, req *CreateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.Review, error)
	ProductRating(ctx context.Context, tenantID, productID uuid.UUID) (float64, error)
}

type reviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

type CreateReviewRequest struct {
	TenantID  uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required"`
	Comment   *string   `json:"comment"`
}

func (s *reviewService) Create(ctx context.Context, req *CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.New("rating must be between 1 and 5")
	}
	if _, err := s.productRepo.GetByID(ctx, req.TenantID, req.ProductID); err != nil {
		return nil, errors.New("product not found")
	}

	review := &models.Review{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.reviewRepo.Delete(ctx, tenantID, id)
}

func (s *reviewService) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviewRepo.ListByProduct(ctx, tenantID, productID, limit, offset)
}

func (s *reviewService) ProductRating(ctx context.Context, tenantID, productID uuid.UUID) (float64, error) {
	return s.reviewRepo.AverageRating(ctx, tenantID, productID)
}
