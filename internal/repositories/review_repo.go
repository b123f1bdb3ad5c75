package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Review, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.Review, error)
	AverageRating(ctx context.Context, tenantID, productID uuid.UUID) (float64, error)
}

type reviewRepo struct {
	db Database
}

func NewReviewRepo(db Database) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, tenant_id, product_id, user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := r.db.Exec(ctx, query, review.ID, review.TenantID, review.ProductID, review.UserID,
		review.Rating, review.Comment)
	return err
}

func (r *reviewRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Review, error) {
	review := &models.Review{}
	query := `
		SELECT id, tenant_id, product_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&review.ID, &review.TenantID, &review.ProductID,
		&review.UserID, &review.Rating, &review.Comment, &review.CreatedAt)
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *reviewRepo) ListByProduct(ctx context.Context, tenantID, productID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	query := `
		SELECT id, tenant_id, product_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE tenant_id = $1 AND product_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review := &models.Review{}
		if err := rows.Scan(&review.ID, &review.TenantID, &review.ProductID, &review.UserID,
			&review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *reviewRepo) AverageRating(ctx context.Context, tenantID, productID uuid.UUID) (float64, error) {
	var avg float64
	query := `
		SELECT COALESCE(AVG(rating), 0)
		FROM reviews
		WHERE tenant_id = $1 AND product_id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, productID).Scan(&avg)
	return avg, err
}
