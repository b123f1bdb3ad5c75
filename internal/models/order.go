package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	TenantID   uuid.UUID    `json:"tenant_id" db:"tenant_id"`
	CustomerID uuid.UUID    `json:"customer_id" db:"customer_id"`
	Status     string       `json:"status" db:"status"`
	Subtotal   float64      `json:"subtotal" db:"subtotal"`
	Discount   float64      `json:"discount" db:"discount"`
	Total      float64      `json:"total" db:"total"`
	CouponID   *uuid.UUID   `json:"coupon_id,omitempty" db:"coupon_id"`
	Items      []*OrderItem `json:"items,omitempty" db:"-"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
}
