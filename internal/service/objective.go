package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brandpulse/okrops/internal/bulk"
	"github.com/brandpulse/okrops/internal/cache"
	"github.com/brandpulse/okrops/internal/lifecycle"
	"github.com/brandpulse/okrops/internal/model"
	"github.com/brandpulse/okrops/internal/repository"
	"github.com/brandpulse/okrops/internal/validation"
)

var (
	ErrTenantScopeViolation = errors.New("resource does not belong to the caller's tenant scope")
)

// ValidationFailedError carries the full structured result so callers can
// render every field error and warning.
type ValidationFailedError struct {
	Result validation.Result
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("objective failed validation with %d error(s)", len(e.Result.Errors))
}

// UpdateObjective lists the fields a single-objective update may touch.
// Nil means "leave unchanged".
type UpdateObjective struct {
	Title        *string
	Description  *string
	TargetValue  *float64
	CurrentValue *float64
	TargetDateID *int64
	Granularity  *string
	Priority     *int
	Category     *string
	Status       *string
}

// ObjectiveService runs the full decision pipeline: validation, duplicate
// detection, lifecycle checks, bulk expansion and optimistic cache
// synchronization, with tenant isolation on every path.
type ObjectiveService struct {
	repo         repository.ObjectiveRepository
	refService   *ReferenceService
	templateRepo repository.TemplateRepository
	sync         *cache.Synchronizer
	// duplicateThreshold overrides the default when positive.
	duplicateThreshold float64
}

func NewObjectiveService(
	repo repository.ObjectiveRepository,
	refService *ReferenceService,
	templateRepo repository.TemplateRepository,
	sync *cache.Synchronizer,
	duplicateThreshold float64,
) *ObjectiveService {
	return &ObjectiveService{
		repo:               repo,
		refService:         refService,
		templateRepo:       templateRepo,
		sync:               sync,
		duplicateThreshold: duplicateThreshold,
	}
}

// scopeKeys are the cached views a mutation in this scope can affect.
func scopeKeys(scope model.Scope) []cache.Key {
	return []cache.Key{
		cache.NewKey(scope.TenantID, scope.BrandID, "all"),
		cache.NewKey(scope.TenantID, scope.BrandID, "active"),
	}
}

func listKey(scope model.Scope, activeOnly bool) cache.Key {
	filter := "all"
	if activeOnly {
		filter = "active"
	}
	return cache.NewKey(scope.TenantID, scope.BrandID, filter)
}

// Validate runs the business rules against a candidate without persisting
// anything. The duplicate check sees only the scope's non-archived
// objectives.
func (s *ObjectiveService) Validate(scope model.Scope, candidate validation.CandidateObjective) (validation.Result, error) {
	vctx, err := s.validationContext(scope)
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Validate(candidate, vctx), nil
}

func (s *ObjectiveService) validationContext(scope model.Scope) (validation.Context, error) {
	active, err := s.repo.Objectives(scope.TenantID, scope.BrandID, true)
	if err != nil {
		return validation.Context{}, fmt.Errorf("failed to load objectives for duplicate check: %w", err)
	}

	existing := make([]validation.ExistingObjective, 0, len(active))
	for _, o := range active {
		existing = append(existing, validation.ExistingObjective{ID: o.ID, Title: o.Title})
	}

	dates, err := s.refService.TargetDates()
	if err != nil {
		return validation.Context{}, err
	}
	platforms, err := s.refService.Platforms()
	if err != nil {
		return validation.Context{}, err
	}
	metrics, err := s.refService.MetricTypes()
	if err != nil {
		return validation.Context{}, err
	}

	return validation.Context{
		Existing:  existing,
		Threshold: s.duplicateThreshold,
		Dates:     dates,
		Platforms: platforms,
		Metrics:   metrics,
	}, nil
}

// Create validates the candidate and inserts the objective through the
// optimistic synchronizer so cached list views update immediately.
func (s *ObjectiveService) Create(ctx context.Context, scope model.Scope, candidate validation.CandidateObjective) (*model.Objective, error) {
	if candidate.TenantID != scope.TenantID || candidate.BrandID != scope.BrandID {
		return nil, ErrTenantScopeViolation
	}

	res, err := s.Validate(scope, candidate)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &ValidationFailedError{Result: res}
	}
	for _, warning := range res.Warnings {
		slog.Warn("objective accepted with warning", "warning", warning, "tenant_id", scope.TenantID)
	}

	priority := model.PriorityMedium
	if candidate.Priority != nil {
		priority = *candidate.Priority
	}

	now := time.Now()
	objective := &model.Objective{
		ID:           uuid.New().String(),
		TenantID:     candidate.TenantID,
		BrandID:      candidate.BrandID,
		Title:        candidate.Title,
		Description:  candidate.Description,
		TargetValue:  candidate.TargetValue,
		CurrentValue: 0,
		MetricTypeID: candidate.MetricTypeID,
		PlatformID:   candidate.PlatformID,
		TargetDateID: candidate.TargetDateID,
		Granularity:  candidate.Granularity,
		Priority:     priority,
		Category:     candidate.Category,
		TemplateID:   candidate.TemplateID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	objective.SetStatus(model.ObjectiveStatusActive)

	apply := func(_ cache.Key, view []*model.Objective) []*model.Objective {
		copied := *objective
		return append(view, &copied)
	}
	commit := func(ctx context.Context) error {
		return s.repo.Create(objective)
	}

	err = s.sync.Mutate(ctx, scopeKeys(scope), apply, commit)
	if err != nil {
		return nil, fmt.Errorf("failed to create objective: %w", err)
	}

	return objective, nil
}

// CreateFromTemplate instantiates an objective from a template, inheriting
// category and defaults the candidate leaves unset, and records the
// template id as provenance.
func (s *ObjectiveService) CreateFromTemplate(ctx context.Context, scope model.Scope, templateID string, candidate validation.CandidateObjective) (*model.Objective, error) {
	template, err := s.templateRepo.ByID(scope.TenantID, templateID)
	if err != nil {
		return nil, err
	}

	if candidate.Category == "" {
		candidate.Category = template.Category
	}
	if candidate.Granularity == "" {
		candidate.Granularity = template.DefaultGranularity
	}
	if candidate.Priority == nil {
		prio := template.DefaultPriority
		candidate.Priority = &prio
	}
	candidate.TemplateID = &template.ID

	return s.Create(ctx, scope, candidate)
}

// Objectives reads through the cache: a hit serves the cached view, a miss
// (including post-mutation invalidation) refetches and fills.
func (s *ObjectiveService) Objectives(scope model.Scope, activeOnly bool) ([]*model.Objective, error) {
	key := listKey(scope, activeOnly)

	cached, ok := s.sync.Read(key)
	if ok {
		return cached, nil
	}

	objectives, err := s.repo.Objectives(scope.TenantID, scope.BrandID, activeOnly)
	if err != nil {
		return nil, err
	}

	s.sync.Fill(key, objectives)
	return objectives, nil
}

func (s *ObjectiveService) ByID(scope model.Scope, objectiveID string) (*model.Objective, error) {
	return s.repo.ByID(scope.TenantID, scope.BrandID, objectiveID)
}

// Update applies a single-objective mutation. A status change is checked
// against the lifecycle state machine before anything is committed.
func (s *ObjectiveService) Update(ctx context.Context, scope model.Scope, objectiveID string, updates UpdateObjective) (*model.Objective, error) {
	current, err := s.repo.ByID(scope.TenantID, scope.BrandID, objectiveID)
	if err != nil {
		return nil, err
	}

	if updates.Status != nil && *updates.Status != current.Status {
		err = lifecycle.Transition(current.Status, *updates.Status)
		if err != nil {
			return nil, err
		}
	}

	updated := *current
	applyUpdates(&updated, updates)
	updated.UpdatedAt = time.Now()

	shape := validation.Validate(candidateFromObjective(&updated), validation.Context{})
	if !shape.Valid {
		return nil, &ValidationFailedError{Result: shape}
	}

	apply := func(_ cache.Key, view []*model.Objective) []*model.Objective {
		for i, o := range view {
			if o.ID == updated.ID {
				copied := updated
				view[i] = &copied
			}
		}
		return view
	}
	commit := func(ctx context.Context) error {
		return s.repo.Update(&updated)
	}

	err = s.sync.Mutate(ctx, scopeKeys(scope), apply, commit)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Archive soft-deletes the objective; there is no hard delete.
func (s *ObjectiveService) Archive(ctx context.Context, scope model.Scope, objectiveID string) (*model.Objective, error) {
	archived := model.ObjectiveStatusArchived
	return s.Update(ctx, scope, objectiveID, UpdateObjective{Status: &archived})
}

// BulkApply expands a bulk operation into its field mutations, checks any
// status change against the state machine per target, and applies the plan
// through the synchronizer in a single scoped write.
func (s *ObjectiveService) BulkApply(ctx context.Context, scope model.Scope, ids []string, op bulk.Operation, extra bulk.Updates) (bulk.Plan, error) {
	plan, err := bulk.PlanOperation(ids, op, extra)
	if err != nil {
		return bulk.Plan{}, err
	}

	if plan.Status != nil {
		for _, id := range plan.IDs {
			target, err := s.repo.ByID(scope.TenantID, scope.BrandID, id)
			if err != nil {
				return bulk.Plan{}, err
			}
			// Targets already in the requested status carry no status
			// change, so the state machine is not consulted for them.
			if target.Status == *plan.Status {
				continue
			}
			err = lifecycle.Transition(target.Status, *plan.Status)
			if err != nil {
				return bulk.Plan{}, err
			}
		}
	}

	targeted := make(map[string]bool, len(plan.IDs))
	for _, id := range plan.IDs {
		targeted[id] = true
	}

	apply := func(_ cache.Key, view []*model.Objective) []*model.Objective {
		for _, o := range view {
			if !targeted[o.ID] {
				continue
			}
			if plan.Status != nil {
				o.SetStatus(*plan.Status)
			}
			if plan.Priority != nil {
				o.Priority = *plan.Priority
			}
			if plan.Category != nil {
				o.Category = *plan.Category
			}
			o.UpdatedAt = time.Now()
		}
		return view
	}
	commit := func(ctx context.Context) error {
		rows, err := s.repo.UpdateFields(scope.TenantID, scope.BrandID, plan.IDs, plan.Status, plan.Priority, plan.Category)
		if err != nil {
			return err
		}
		if rows != int64(len(plan.IDs)) {
			slog.Warn("bulk update touched fewer rows than targeted",
				"targeted", len(plan.IDs), "updated", rows, "tenant_id", scope.TenantID)
		}
		return nil
	}

	err = s.sync.Mutate(ctx, scopeKeys(scope), apply, commit)
	if err != nil {
		return bulk.Plan{}, err
	}

	return plan, nil
}

// Templates lists the scope's objective templates.
func (s *ObjectiveService) Templates(scope model.Scope) ([]*model.ObjectiveTemplate, error) {
	return s.templateRepo.Templates(scope.TenantID)
}

func applyUpdates(objective *model.Objective, updates UpdateObjective) {
	if updates.Title != nil {
		objective.Title = *updates.Title
	}
	if updates.Description != nil {
		objective.Description = *updates.Description
	}
	if updates.TargetValue != nil {
		objective.TargetValue = *updates.TargetValue
	}
	if updates.CurrentValue != nil {
		objective.CurrentValue = *updates.CurrentValue
	}
	if updates.TargetDateID != nil {
		objective.TargetDateID = *updates.TargetDateID
	}
	if updates.Granularity != nil {
		objective.Granularity = *updates.Granularity
	}
	if updates.Priority != nil {
		objective.Priority = *updates.Priority
	}
	if updates.Category != nil {
		objective.Category = *updates.Category
	}
	if updates.Status != nil {
		objective.SetStatus(*updates.Status)
	}
}

// candidateFromObjective re-shapes a stored objective for shape-only
// revalidation on edit. Contextual rules (duplicates, date resolution) are
// creation-time policy and are not re-applied here.
func candidateFromObjective(objective *model.Objective) validation.CandidateObjective {
	prio := objective.Priority
	return validation.CandidateObjective{
		TenantID:     objective.TenantID,
		BrandID:      objective.BrandID,
		Title:        objective.Title,
		Description:  objective.Description,
		TargetValue:  objective.TargetValue,
		MetricTypeID: objective.MetricTypeID,
		PlatformID:   objective.PlatformID,
		TargetDateID: objective.TargetDateID,
		Granularity:  objective.Granularity,
		Priority:     &prio,
		Category:     objective.Category,
		TemplateID:   objective.TemplateID,
	}
}
