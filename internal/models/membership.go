package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership links a user to a tenant with a role. Access to a tenant's
// data requires an active membership in that tenant.
type Membership struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	Role         string     `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	LastAccessAt *time.Time `json:"last_access_at,omitempty" db:"last_access_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
