package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	CouponTypePercent = "percent"
	CouponTypeFixed   = "fixed"
)

type Coupon struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	TenantID   uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Code       string     `json:"code" db:"code"`
	Type       string     `json:"type" db:"type"`
	Value      float64    `json:"value" db:"value"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	UsageLimit int        `json:"usage_limit" db:"usage_limit"`
	UsedCount  int        `json:"used_count" db:"used_count"`
	Active     bool       `json:"active" db:"active"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Usable reports whether the coupon can still be applied at the given time.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}
