package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantUsage is one tenant's API call count for one billing month.
type TenantUsage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	TenantID    uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Period      string    `json:"period" db:"period"` // YYYY-MM
	APICalls    int64     `json:"api_calls" db:"api_calls"`
	RecordedAt  time.Time `json:"recorded_at" db:"recorded_at"`
}
