package repositories

import (
	"context"
	"fmt"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error)
	Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error)
	AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) error
}

type productRepo struct {
	db Database
}

func NewProductRepo(db Database) ProductRepository {
	return &productRepo{db: db}
}

const productColumns = `id, tenant_id, sku, name, description, unit_price, stock, image_key, active, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, sku, name, description, unit_price, stock, image_key, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, product.ID, product.TenantID, product.SKU, product.Name, product.Description,
		product.UnitPrice, product.Stock, product.ImageKey, product.Active)
	return err
}

func (r *productRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&product.ID, &product.TenantID, &product.SKU, &product.Name,
		&product.Description, &product.UnitPrice, &product.Stock, &product.ImageKey, &product.Active,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1 AND sku = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, sku).Scan(&product.ID, &product.TenantID, &product.SKU, &product.Name,
		&product.Description, &product.UnitPrice, &product.Stock, &product.ImageKey, &product.Active,
		&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *productRepo) Update(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products
		SET sku = $1, name = $2, description = $3, unit_price = $4, stock = $5, image_key = $6, active = $7, updated_at = NOW()
		WHERE tenant_id = $8 AND id = $9
	`
	_, err := r.db.Exec(ctx, query, product.SKU, product.Name, product.Description, product.UnitPrice,
		product.Stock, product.ImageKey, product.Active, product.TenantID, product.ID)
	return err
}

func (r *productRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM products WHERE tenant_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, tenantID, id)
	return err
}

func (r *productRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) Search(ctx context.Context, tenantID uuid.UUID, filter *models.ProductSearchFilter) ([]*models.Product, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE tenant_id = $1
	`
	args := []any{tenantID}
	idx := 2

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", idx, idx)
		args = append(args, "%"+filter.Query+"%")
		idx++
	}
	if filter.MinPrice != nil {
		query += fmt.Sprintf(" AND unit_price >= $%d", idx)
		args = append(args, *filter.MinPrice)
		idx++
	}
	if filter.MaxPrice != nil {
		query += fmt.Sprintf(" AND unit_price <= $%d", idx)
		args = append(args, *filter.MaxPrice)
		idx++
	}
	if filter.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", idx)
		args = append(args, *filter.Active)
		idx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

// AdjustStock moves stock by delta and refuses to go negative.
func (r *productRepo) AdjustStock(ctx context.Context, tenantID, id uuid.UUID, delta int) error {
	query := `
		UPDATE products
		SET stock = stock + $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND stock + $1 >= 0
	`
	tag, err := r.db.Exec(ctx, query, delta, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insufficient stock for product %s", id)
	}
	return nil
}

func scanProducts(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.TenantID, &product.SKU, &product.Name, &product.Description,
			&product.UnitPrice, &product.Stock, &product.ImageKey, &product.Active,
			&product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}
