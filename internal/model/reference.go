package model

import (
	"time"
)

// Reference categories used by the platform/metric compatibility table.
const (
	PlatformCategorySocialMedia = "social_media"
	PlatformCategorySearch      = "search"
	PlatformCategoryEmail       = "email"
	PlatformCategoryWeb         = "web"

	MetricCategoryEngagement = "engagement"
	MetricCategoryReach      = "reach"
	MetricCategoryConversion = "conversion"
	MetricCategoryFinancial  = "financial"
)

type MetricType struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`
}

type Platform struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Category string `db:"category" json:"category"`
}

type TargetDate struct {
	ID   int64     `db:"id" json:"id"`
	Date time.Time `db:"date" json:"date"`
}
