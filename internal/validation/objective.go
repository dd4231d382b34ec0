package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse/okrops/internal/model"
)

const (
	TitleMinLength = 3
	TitleMaxLength = 255

	// MaxTargetValue is the hard upper bound for a target; anything above
	// SuspiciousTargetValue only draws a warning.
	MaxTargetValue        = 1_000_000_000
	SuspiciousTargetValue = 1_000_000
)

// Error codes carried by FieldError. Stable identifiers clients can match on.
const (
	CodeInvalidTitle       = "invalid_title"
	CodeInvalidTargetValue = "invalid_target_value"
	CodeInvalidTargetDate  = "invalid_target_date"
	CodeTargetDateNotFound = "target_date_not_found"
	CodeTargetDatePast     = "target_date_past"
	CodeInvalidGranularity = "invalid_granularity"
	CodeInvalidMetricType  = "invalid_metric_type"
	CodeInvalidPlatform    = "invalid_platform"
	CodeInvalidTenant      = "invalid_tenant"
	CodeInvalidBrand       = "invalid_brand"
	CodeInvalidPriority    = "invalid_priority"
	CodeDuplicateTitle     = "duplicate_title"
	CodeIncompatibleMetric = "incompatible_platform_metric"
)

// placeholderWords in a title draw a warning, never an error.
var placeholderWords = []string{"test", "sample", "dummy"}

// CandidateObjective is the payload under validation. Optional fields are
// pointers; everything else is required for a valid objective.
type CandidateObjective struct {
	TenantID     string
	BrandID      string
	Title        string
	Description  string
	TargetValue  float64
	MetricTypeID int64
	PlatformID   *int64
	TargetDateID int64
	Granularity  string
	Priority     *int
	Category     string
	TemplateID   *string
}

// Context supplies the optional lookups individual checks depend on. A nil
// map or empty slice skips the corresponding check.
type Context struct {
	// Existing holds the caller's active objectives for duplicate detection.
	Existing []ExistingObjective
	// Threshold overrides DefaultDuplicateThreshold when positive.
	Threshold float64
	// Dates maps target date ids to their resolved calendar dates.
	Dates map[int64]model.TargetDate
	// Platforms and Metrics feed the compatibility check; both must be
	// present for it to run.
	Platforms map[int64]model.Platform
	Metrics   map[int64]model.MetricType
	// Now anchors the target-date check; the zero value means time.Now().
	Now time.Time
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Result is the outcome of validating one candidate. Warnings never block
// acceptance; Valid is false iff Errors is non-empty. Duplicate is set when
// the duplicate check found a collision, alongside the matching error.
type Result struct {
	Valid     bool            `json:"valid"`
	Errors    []FieldError    `json:"errors"`
	Warnings  []string        `json:"warnings"`
	Duplicate *DuplicateMatch `json:"duplicate,omitempty"`
}

func (r *Result) addError(field, message, code string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message, Code: code})
}

func (r *Result) addWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Validate applies every business rule to the candidate and accumulates all
// failures; it never short-circuits. Pure function over candidate + context.
func Validate(c CandidateObjective, vctx Context) Result {
	var res Result

	validateShape(c, &res)
	validatePriority(c, &res)
	validateDuplicate(c, vctx, &res)
	validateTargetDate(c, vctx, &res)
	validateCompatibility(c, vctx, &res)

	collectWarnings(c, &res)

	res.Valid = len(res.Errors) == 0
	return res
}

func validateShape(c CandidateObjective, res *Result) {
	title := strings.TrimSpace(c.Title)
	if len(title) < TitleMinLength || len(title) > TitleMaxLength {
		res.addError("title",
			fmt.Sprintf("title must be between %d and %d characters", TitleMinLength, TitleMaxLength),
			CodeInvalidTitle)
	}

	if c.TargetValue <= 0 {
		res.addError("target_value", "target value must be positive", CodeInvalidTargetValue)
	} else if c.TargetValue > MaxTargetValue {
		res.addError("target_value",
			fmt.Sprintf("target value must not exceed %d", int64(MaxTargetValue)),
			CodeInvalidTargetValue)
	}

	if c.TargetDateID <= 0 {
		res.addError("target_date_id", "target date reference is required", CodeInvalidTargetDate)
	}

	if !model.ValidGranularity(c.Granularity) {
		res.addError("granularity", "granularity must be daily, weekly or monthly", CodeInvalidGranularity)
	}

	if c.MetricTypeID <= 0 {
		res.addError("metric_type_id", "metric type reference is required", CodeInvalidMetricType)
	}

	if c.PlatformID != nil && *c.PlatformID <= 0 {
		res.addError("platform_id", "platform reference is malformed", CodeInvalidPlatform)
	}

	if strings.TrimSpace(c.TenantID) == "" {
		res.addError("tenant_id", "tenant reference is required", CodeInvalidTenant)
	}

	if strings.TrimSpace(c.BrandID) == "" {
		res.addError("brand_id", "brand reference is required", CodeInvalidBrand)
	}
}

func validatePriority(c CandidateObjective, res *Result) {
	if c.Priority == nil {
		return
	}
	if !model.ValidPriority(*c.Priority) {
		res.addError("priority", "priority must be 1 (high), 2 (medium) or 3 (low)", CodeInvalidPriority)
	}
}

func validateDuplicate(c CandidateObjective, vctx Context, res *Result) {
	if len(vctx.Existing) == 0 {
		return
	}

	threshold := vctx.Threshold
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	match, ok := CheckDuplicate(c.Title, vctx.Existing, threshold)
	if ok {
		res.Duplicate = &match
		res.addError("title",
			fmt.Sprintf("too similar to existing objective %q (%d%% match)", match.Title, match.Similarity),
			CodeDuplicateTitle)
	}
}

func validateTargetDate(c CandidateObjective, vctx Context, res *Result) {
	if vctx.Dates == nil || c.TargetDateID <= 0 {
		return
	}

	now := vctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	td, ok := vctx.Dates[c.TargetDateID]
	if !ok {
		res.addError("target_date_id", "target date does not exist", CodeTargetDateNotFound)
		return
	}

	if !td.Date.After(now) {
		res.addError("target_date_id", "target date must be in the future", CodeTargetDatePast)
	}
}

func validateCompatibility(c CandidateObjective, vctx Context, res *Result) {
	if vctx.Platforms == nil || vctx.Metrics == nil {
		return
	}
	// No platform means the objective applies to all platforms and is
	// compatible with any metric.
	if c.PlatformID == nil {
		return
	}

	platform, ok := vctx.Platforms[*c.PlatformID]
	if !ok {
		res.addError("platform_id", "platform does not exist", CodeInvalidPlatform)
		return
	}

	metric, ok := vctx.Metrics[c.MetricTypeID]
	if !ok {
		res.addError("metric_type_id", "metric type does not exist", CodeInvalidMetricType)
		return
	}

	if !Compatible(platform.Category, metric.Category) {
		res.addError("metric_type_id",
			fmt.Sprintf("metric category %q cannot be tracked on a %q platform", metric.Category, platform.Category),
			CodeIncompatibleMetric)
	}
}

func collectWarnings(c CandidateObjective, res *Result) {
	if c.TargetValue > SuspiciousTargetValue && c.TargetValue <= MaxTargetValue {
		res.addWarning(fmt.Sprintf("target value %.0f is unusually high, double-check the unit", c.TargetValue))
	}

	lower := strings.ToLower(c.Title)
	for _, word := range placeholderWords {
		if strings.Contains(lower, word) {
			res.addWarning(fmt.Sprintf("title contains placeholder word %q", word))
			break
		}
	}
}
