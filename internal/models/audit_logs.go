package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	TenantID  uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	TableName string     `json:"table_name" db:"table_name"`
	RecordID  string     `json:"record_id" db:"record_id"`
	Action    string     `json:"action" db:"action"`
	OldValues JSONB      `json:"old_values,omitempty" db:"old_values"`
	NewValues JSONB      `json:"new_values,omitempty" db:"new_values"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
