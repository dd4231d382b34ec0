package model

import (
	"time"
)

const (
	ObjectiveStatusActive    = "active"
	ObjectiveStatusPaused    = "paused"
	ObjectiveStatusCompleted = "completed"
	ObjectiveStatusArchived  = "archived"
)

const (
	GranularityDaily   = "daily"
	GranularityWeekly  = "weekly"
	GranularityMonthly = "monthly"
)

const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

type Objective struct {
	ID           string    `db:"id" json:"id"`
	TenantID     string    `db:"tenant_id" json:"tenant_id"`
	BrandID      string    `db:"brand_id" json:"brand_id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	TargetValue  float64   `db:"target_value" json:"target_value"`
	CurrentValue float64   `db:"current_value" json:"current_value"`
	MetricTypeID int64     `db:"metric_type_id" json:"metric_type_id"`
	PlatformID   *int64    `db:"platform_id" json:"platform_id,omitempty"`
	TargetDateID int64     `db:"target_date_id" json:"target_date_id"`
	Granularity  string    `db:"granularity" json:"granularity"`
	Priority     int       `db:"priority" json:"priority"`
	Category     string    `db:"category" json:"category"`
	Status       string    `db:"status" json:"status"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	TemplateID   *string   `db:"template_id" json:"template_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Archived reports whether the objective reached its terminal status.
func (o *Objective) Archived() bool {
	return o.Status == ObjectiveStatusArchived
}

// SetStatus updates the status and keeps the IsActive mirror consistent.
func (o *Objective) SetStatus(status string) {
	o.Status = status
	o.IsActive = status != ObjectiveStatusArchived
}

func ValidGranularity(g string) bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

func ValidPriority(p int) bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func ValidStatus(s string) bool {
	switch s {
	case ObjectiveStatusActive, ObjectiveStatusPaused, ObjectiveStatusCompleted, ObjectiveStatusArchived:
		return true
	}
	return false
}
