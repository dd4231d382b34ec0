package validation

import (
	"github.com/brandpulse/okrops/internal/model"
)

// incompatiblePairs lists platform/metric category combinations that never
// make sense together. Anything not listed is allowed.
var incompatiblePairs = map[[2]string]bool{
	{model.PlatformCategorySocialMedia, model.MetricCategoryFinancial}: true,
	{model.PlatformCategoryEmail, model.MetricCategoryReach}:           true,
	{model.PlatformCategorySearch, model.MetricCategoryEngagement}:     true,
}

// Compatible reports whether a metric of the given category may be tracked
// on a platform of the given category.
func Compatible(platformCategory, metricCategory string) bool {
	return !incompatiblePairs[[2]string{platformCategory, metricCategory}]
}
