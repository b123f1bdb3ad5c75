package repositories

import (
	"context"
	"errors"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

var ErrCouponExhausted = errors.New("coupon usage limit reached")

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error)
	IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error
}

type couponRepo struct {
	db Database
}

func NewCouponRepo(db Database) CouponRepository {
	return &couponRepo{db: db}
}

func (r *couponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (id, tenant_id, code, type, value, expires_at, usage_limit, used_count, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, coupon.ID, coupon.TenantID, coupon.Code, coupon.Type, coupon.Value,
		coupon.ExpiresAt, coupon.UsageLimit, coupon.UsedCount, coupon.Active)
	return err
}

func (r *couponRepo) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	query := `
		SELECT id, tenant_id, code, type, value, expires_at, usage_limit, used_count, active, created_at, updated_at
		FROM coupons
		WHERE tenant_id = $1 AND code = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, code).Scan(&coupon.ID, &coupon.TenantID, &coupon.Code,
		&coupon.Type, &coupon.Value, &coupon.ExpiresAt, &coupon.UsageLimit, &coupon.UsedCount, &coupon.Active,
		&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *couponRepo) Update(ctx context.Context, coupon *models.Coupon) error {
	query := `
		UPDATE coupons
		SET code = $1, type = $2, value = $3, expires_at = $4, usage_limit = $5, active = $6, updated_at = NOW()
		WHERE tenant_id = $7 AND id = $8
	`
	_, err := r.db.Exec(ctx, query, coupon.Code, coupon.Type, coupon.Value, coupon.ExpiresAt,
		coupon.UsageLimit, coupon.Active, coupon.TenantID, coupon.ID)
	return err
}

func (r *couponRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM coupons WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *couponRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Coupon, error) {
	query := `
		SELECT id, tenant_id, code, type, value, expires_at, usage_limit, used_count, active, created_at, updated_at
		FROM coupons
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		coupon := &models.Coupon{}
		if err := rows.Scan(&coupon.ID, &coupon.TenantID, &coupon.Code, &coupon.Type, &coupon.Value,
			&coupon.ExpiresAt, &coupon.UsageLimit, &coupon.UsedCount, &coupon.Active,
			&coupon.CreatedAt, &coupon.UpdatedAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}

// IncrementUsage bumps used_count only while the limit still has headroom,
// so concurrent redemptions cannot overrun it.
func (r *couponRepo) IncrementUsage(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND (usage_limit = 0 OR used_count < usage_limit)
	`
	tag, err := r.db.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponExhausted
	}
	return nil
}
