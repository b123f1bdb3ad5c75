package repositories

import (
	"context"

	"crmhub/internal/models"

	"github.com/google/uuid"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error)
	ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit, offset int) ([]*models.Order, error)
	SumRevenue(ctx context.Context, tenantID uuid.UUID) (float64, error)
	CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
}

type orderRepo struct {
	db Database
}

func NewOrderRepo(db Database) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, tenant_id, customer_id, status, subtotal, discount, total, coupon_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, order.ID, order.TenantID, order.CustomerID, order.Status,
		order.Subtotal, order.Discount, order.Total, order.CouponID)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemQuery := `
			INSERT INTO order_items (id, tenant_id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := r.db.Exec(ctx, itemQuery, item.ID, item.TenantID, item.OrderID, item.ProductID,
			item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, tenant_id, customer_id, status, subtotal, discount, total, coupon_id, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(&order.ID, &order.TenantID, &order.CustomerID,
		&order.Status, &order.Subtotal, &order.Discount, &order.Total, &order.CouponID,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepo) listItems(ctx context.Context, tenantID, orderID uuid.UUID) ([]*models.OrderItem, error) {
	query := `
		SELECT id, tenant_id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE tenant_id = $1 AND order_id = $2
	`
	rows, err := r.db.Query(ctx, query, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{}
		if err := rows.Scan(&item.ID, &item.TenantID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3
	`
	_, err := r.db.Exec(ctx, query, status, tenantID, id)
	return err
}

func (r *orderRepo) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, status, subtotal, discount, total, coupon_id, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *orderRepo) ListByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT id, tenant_id, customer_id, status, subtotal, discount, total, coupon_id, created_at, updated_at
		FROM orders
		WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *orderRepo) SumRevenue(ctx context.Context, tenantID uuid.UUID) (float64, error) {
	var total float64
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE tenant_id = $1 AND status NOT IN ($2, $3)
	`
	err := r.db.QueryRow(ctx, query, tenantID, models.OrderStatusPending, models.OrderStatusCancelled).Scan(&total)
	return total, err
}

func (r *orderRepo) CountByStatus(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM orders
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

func scanOrders(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.TenantID, &order.CustomerID, &order.Status,
			&order.Subtotal, &order.Discount, &order.Total, &order.CouponID,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
