package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OpportunityStageProspecting = "prospecting"
	OpportunityStageProposal    = "proposal"
	OpportunityStageNegotiation = "negotiation"
	OpportunityStageWon         = "won"
	OpportunityStageLost        = "lost"
)

type Opportunity struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	TenantID      uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	LeadID        *uuid.UUID `json:"lead_id,omitempty" db:"lead_id"`
	OwnerID       *uuid.UUID `json:"owner_id,omitempty" db:"owner_id"`
	Name          string     `json:"name" db:"name"`
	Stage         string     `json:"stage" db:"stage"`
	Amount        float64    `json:"amount" db:"amount"`
	ExpectedClose *time.Time `json:"expected_close,omitempty" db:"expected_close"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
