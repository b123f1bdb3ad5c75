package services

import (
	"context"
	"errors"
	"fmt"

	"crmhub/internal/models"
	"crmhub/internal/repositories"

	"github.com/google/uuid"
)

// Allowed order status transitions.
var orderTransitions = map[string][]string{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped: {models.OrderStatusDelivered},
}

type OrderService interface {
	Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error
	MarkPaid(ctx context.Context, tenantID, id uuid.UUID) error
	Cancel(ctx context.Context, tenantID, id uuid.UUID) error
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	couponSvc   CouponService
}

func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, couponSvc CouponService) OrderService {
	return &orderService{orderRepo: orderRepo, productRepo: productRepo, couponSvc: couponSvc}
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

type CreateOrderRequest struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID          `json:"customer_id" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"required"`
	CouponCode string             `json:"coupon_code"`
}

// Create builds an order from current catalog prices. Totals are always
// computed server-side; client-supplied amounts are never trusted.
// Stock is reserved per line before the order row is written.
func (s *orderService) Create(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, errors.New("order must have at least one item")
	}
	if req.CustomerID == uuid.Nil {
		return nil, errors.New("customer_id is required")
	}

	orderID := uuid.New()
	var subtotal float64
	items := make([]*models.OrderItem, 0, len(req.Items))
	reserved := make([]*models.OrderItem, 0, len(req.Items))

	restock := func() {
		for _, item := range reserved {
			_ = s.productRepo.AdjustStock(ctx, req.TenantID, item.ProductID, item.Quantity)
		}
	}

	for _, line := range req.Items {
		if line.Quantity <= 0 {
			restock()
			return nil, errors.New("item quantity must be positive")
		}
		product, err := s.productRepo.GetByID(ctx, req.TenantID, line.ProductID)
		if err != nil {
			restock()
			return nil, fmt.Errorf("product %s not found", line.ProductID)
		}
		if !product.Active {
			restock()
			return nil, fmt.Errorf("product %s is not available", product.SKU)
		}
		if err := s.productRepo.AdjustStock(ctx, req.TenantID, product.ID, -line.Quantity); err != nil {
			restock()
			return nil, err
		}

		item := &models.OrderItem{
			ID:        uuid.New(),
			TenantID:  req.TenantID,
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.UnitPrice,
		}
		reserved = append(reserved, item)
		items = append(items, item)
		subtotal += product.UnitPrice * float64(line.Quantity)
	}

	var discount float64
	var couponID *uuid.UUID
	if req.CouponCode != "" {
		coupon, d, err := s.couponSvc.Redeem(ctx, req.TenantID, req.CouponCode, subtotal)
		if err != nil {
			restock()
			return nil, err
		}
		discount = d
		couponID = &coupon.ID
	}

	order := &models.Order{
		ID:         orderID,
		TenantID:   req.TenantID,
		CustomerID: req.CustomerID,
		Status:     models.OrderStatusPending,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      subtotal - discount,
		CouponID:   couponID,
		Items:      items,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		restock()
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, tenantID, id)
}

func (s *orderService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.orderRepo.List(ctx, tenantID, limit, offset)
}

func (s *orderService) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) error {
	existing, err := s.orderRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !validOrderTransition(existing.Status, status) {
		return fmt.Errorf("cannot move order from %s to %s", existing.Status, status)
	}
	if err := s.orderRepo.UpdateStatus(ctx, tenantID, id, status); err != nil {
		return err
	}
	if status == models.OrderStatusCancelled {
		for _, item := range existing.Items {
			_ = s.productRepo.AdjustStock(ctx, tenantID, item.ProductID, item.Quantity)
		}
	}
	return nil
}

func (s *orderService) MarkPaid(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.UpdateStatus(ctx, tenantID, id, models.OrderStatusPaid)
}

func (s *orderService) Cancel(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.UpdateStatus(ctx, tenantID, id, models.OrderStatusCancelled)
}

func validOrderTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
