package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

type Lead struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	OwnerID   *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Email     string     `json:"email" db:"email"`
	Phone     *string    `json:"phone,omitempty" db:"phone"`
	Company   *string    `json:"company,omitempty" db:"company"`
	Source    *string    `json:"source,omitempty" db:"source"`
	Status    string     `json:"status" db:"status"`
	Score     int        `json:"score" db:"score"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
