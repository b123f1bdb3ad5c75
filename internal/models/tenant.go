package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive    = "active"
	TenantStatusTrial     = "trial"
	TenantStatusSuspended = "suspended"
)

// Tenant is an isolated customer account. Tenants are never hard-deleted:
// deactivation sets status to suspended and stamps deleted_at.
type Tenant struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	Name                string     `json:"name" db:"name"`
	Subdomain           string     `json:"subdomain" db:"subdomain"`
	SchemaName          string     `json:"-" db:"schema_name"`
	Plan                string     `json:"plan" db:"plan"`
	Status              string     `json:"status" db:"status"`
	TrialEndsAt         *time.Time `json:"trial_ends_at,omitempty" db:"trial_ends_at"`
	MaxUsers            int        `json:"max_users" db:"max_users"`
	MaxAPICallsPerMonth int        `json:"max_api_calls_per_month" db:"max_api_calls_per_month"`
	Settings            JSONB      `json:"settings,omitempty" db:"settings"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Operational reports whether requests may be served for the tenant.
func (t *Tenant) Operational(now time.Time) bool {
	switch t.Status {
	case TenantStatusActive:
		return true
	case TenantStatusTrial:
		return t.TrialEndsAt == nil || now.Before(*t.TrialEndsAt)
	default:
		return false
	}
}

// TrialExpired reports whether a trial tenant has run past its trial window.
func (t *Tenant) TrialExpired(now time.Time) bool {
	return t.Status == TenantStatusTrial && t.TrialEndsAt != nil && !now.Before(*t.TrialEndsAt)
}
