package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PolicyEffectAllow = "allow"
	PolicyEffectDeny  = "deny"
)

// Policy is one authorization rule: role x resource x action -> effect.
// Permissions are data evaluated by one engine, not a type per resource.
type Policy struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Role      string    `json:"role" db:"role"`
	Resource  string    `json:"resource" db:"resource"`
	Action    string    `json:"action" db:"action"`
	Effect    string    `json:"effect" db:"effect"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
