package models

// JSONB maps onto a postgres jsonb column
type JSONB map[string]interface{}
