package model

import (
	"time"
)

// ObjectiveTemplate is a reusable blueprint an objective can be
// instantiated from. The objective records the template id as provenance;
// the link is never required for validity.
type ObjectiveTemplate struct {
	ID                 string    `db:"id" json:"id"`
	TenantID           string    `db:"tenant_id" json:"tenant_id"`
	Name               string    `db:"name" json:"name"`
	Category           string    `db:"category" json:"category"`
	DefaultGranularity string    `db:"default_granularity" json:"default_granularity"`
	DefaultPriority    int       `db:"default_priority" json:"default_priority"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
