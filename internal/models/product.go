package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	SKU         string    `json:"sku" db:"sku"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Stock       int       `json:"stock" db:"stock"`
	ImageKey    *string   `json:"image_key,omitempty" db:"image_key"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductSearchFilter captures optional search parameters
type ProductSearchFilter struct {
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Active   *bool
	Limit    int
	Offset   int
}
