package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/okrops/internal/bulk"
	"github.com/brandpulse/okrops/internal/cache"
	"github.com/brandpulse/okrops/internal/lifecycle"
	"github.com/brandpulse/okrops/internal/model"
	"github.com/brandpulse/okrops/internal/repository"
	"github.com/brandpulse/okrops/internal/validation"
)

// fakeObjectiveRepo is an in-memory ObjectiveRepository.
type fakeObjectiveRepo struct {
	objectives map[string]*model.Objective
	listCalls  int
	failWrites error
}

func newFakeObjectiveRepo() *fakeObjectiveRepo {
	return &fakeObjectiveRepo{objectives: make(map[string]*model.Objective)}
}

func (r *fakeObjectiveRepo) Create(objective *model.Objective) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	copied := *objective
	r.objectives[objective.ID] = &copied
	return nil
}

func (r *fakeObjectiveRepo) ByID(tenantID, brandID, objectiveID string) (*model.Objective, error) {
	o, ok := r.objectives[objectiveID]
	if !ok || o.TenantID != tenantID || o.BrandID != brandID {
		return nil, repository.ErrObjectiveNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeObjectiveRepo) Objectives(tenantID, brandID string, activeOnly bool) ([]*model.Objective, error) {
	r.listCalls++
	var out []*model.Objective
	for _, o := range r.objectives {
		if o.TenantID != tenantID || o.BrandID != brandID {
			continue
		}
		if activeOnly && o.Status == model.ObjectiveStatusArchived {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeObjectiveRepo) Update(objective *model.Objective) error {
	if r.failWrites != nil {
		return r.failWrites
	}
	_, ok := r.objectives[objective.ID]
	if !ok {
		return repository.ErrObjectiveNotFound
	}
	copied := *objective
	r.objectives[objective.ID] = &copied
	return nil
}

func (r *fakeObjectiveRepo) UpdateFields(tenantID, brandID string, ids []string, status *string, priority *int, category *string) (int64, error) {
	if r.failWrites != nil {
		return 0, r.failWrites
	}
	var rows int64
	for _, id := range ids {
		o, ok := r.objectives[id]
		if !ok || o.TenantID != tenantID || o.BrandID != brandID {
			continue
		}
		if status != nil {
			o.SetStatus(*status)
		}
		if priority != nil {
			o.Priority = *priority
		}
		if category != nil {
			o.Category = *category
		}
		o.UpdatedAt = time.Now()
		rows++
	}
	return rows, nil
}

type fakeReferenceRepo struct{}

func (fakeReferenceRepo) MetricTypes() (map[int64]model.MetricType, error) {
	return map[int64]model.MetricType{
		1: {ID: 1, Name: "Likes", Category: model.MetricCategoryEngagement},
		2: {ID: 2, Name: "Revenue", Category: model.MetricCategoryFinancial},
	}, nil
}

func (fakeReferenceRepo) Platforms() (map[int64]model.Platform, error) {
	return map[int64]model.Platform{
		10: {ID: 10, Name: "Instagram", Category: model.PlatformCategorySocialMedia},
	}, nil
}

func (fakeReferenceRepo) TargetDates() (map[int64]model.TargetDate, error) {
	return map[int64]model.TargetDate{
		1: {ID: 1, Date: time.Now().AddDate(0, 3, 0)},
		2: {ID: 2, Date: time.Now().AddDate(0, 0, -1)},
	}, nil
}

type fakeTemplateRepo struct {
	templates map[string]*model.ObjectiveTemplate
}

func (r *fakeTemplateRepo) ByID(tenantID, templateID string) (*model.ObjectiveTemplate, error) {
	t, ok := r.templates[templateID]
	if !ok || t.TenantID != tenantID {
		return nil, repository.ErrTemplateNotFound
	}
	return t, nil
}

func (r *fakeTemplateRepo) Templates(tenantID string) ([]*model.ObjectiveTemplate, error) {
	var out []*model.ObjectiveTemplate
	for _, t := range r.templates {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}

var testScope = model.Scope{TenantID: "tenant-1", BrandID: "brand-1"}

func newTestService(repo *fakeObjectiveRepo) *ObjectiveService {
	templates := &fakeTemplateRepo{templates: map[string]*model.ObjectiveTemplate{
		"tpl-1": {
			ID:                 "tpl-1",
			TenantID:           "tenant-1",
			Name:               "Awareness push",
			Category:           "awareness",
			DefaultGranularity: model.GranularityMonthly,
			DefaultPriority:    model.PriorityHigh,
		},
	}}
	return NewObjectiveService(repo, NewReferenceService(fakeReferenceRepo{}), templates, cache.NewSynchronizer(), validation.DefaultDuplicateThreshold)
}

func testCandidate() validation.CandidateObjective {
	return validation.CandidateObjective{
		TenantID:     "tenant-1",
		BrandID:      "brand-1",
		Title:        "Increase Instagram Engagement",
		TargetValue:  5000,
		MetricTypeID: 1,
		TargetDateID: 1,
		Granularity:  model.GranularityWeekly,
	}
}

func TestCreatePersistsWithDefaults(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)

	stored := repo.objectives[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.ObjectiveStatusActive, stored.Status)
	assert.True(t, stored.IsActive)
	assert.Equal(t, model.PriorityMedium, stored.Priority)
	assert.Equal(t, 0.0, stored.CurrentValue)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestCreateRejectsTenantMismatch(t *testing.T) {
	svc := newTestService(newFakeObjectiveRepo())

	c := testCandidate()
	c.TenantID = "tenant-other"
	_, err := svc.Create(context.Background(), testScope, c)
	assert.ErrorIs(t, err, ErrTenantScopeViolation)
}

func TestCreateRejectsDuplicateTitle(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)

	c := testCandidate()
	c.Title = "increase instagram engagement "
	_, err = svc.Create(context.Background(), testScope, c)

	var vErr *ValidationFailedError
	require.True(t, errors.As(err, &vErr))
	require.Len(t, vErr.Result.Errors, 1)
	assert.Equal(t, validation.CodeDuplicateTitle, vErr.Result.Errors[0].Code)
}

func TestCreateArchivedTitlesDoNotCollide(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)
	_, err = svc.Archive(context.Background(), testScope, created.ID)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), testScope, testCandidate())
	assert.NoError(t, err, "archived objectives are excluded from duplicate checks")
}

func TestCreateRejectsPastTargetDate(t *testing.T) {
	svc := newTestService(newFakeObjectiveRepo())

	c := testCandidate()
	c.TargetDateID = 2 // resolves to yesterday
	_, err := svc.Create(context.Background(), testScope, c)

	var vErr *ValidationFailedError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, validation.CodeTargetDatePast, vErr.Result.Errors[0].Code)
}

func TestCreateRollsBackCacheOnCommitFailure(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	// Warm the cached list view.
	before, err := svc.Objectives(testScope, false)
	require.NoError(t, err)

	repo.failWrites = errors.New("store down")
	_, err = svc.Create(context.Background(), testScope, testCandidate())
	require.Error(t, err)

	var commitErr *cache.CommitError
	assert.True(t, errors.As(err, &commitErr))

	repo.failWrites = nil
	after, err := svc.Objectives(testScope, false)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after), "failed create must leave no trace in any view")
}

func TestCreateFromTemplateInheritsDefaults(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	c := testCandidate()
	c.Granularity = ""
	c.Category = ""

	created, err := svc.CreateFromTemplate(context.Background(), testScope, "tpl-1", c)
	require.NoError(t, err)
	assert.Equal(t, "awareness", created.Category)
	assert.Equal(t, model.GranularityMonthly, created.Granularity)
	assert.Equal(t, model.PriorityHigh, created.Priority)
	require.NotNil(t, created.TemplateID)
	assert.Equal(t, "tpl-1", *created.TemplateID)
}

func TestObjectivesReadsThroughCache(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	_, err := svc.Objectives(testScope, false)
	require.NoError(t, err)
	first := repo.listCalls

	_, err = svc.Objectives(testScope, false)
	require.NoError(t, err)
	assert.Equal(t, first, repo.listCalls, "second read must be served from cache")
}

func TestUpdateStatusConsultsStateMachine(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)

	completed := model.ObjectiveStatusCompleted
	_, err = svc.Update(context.Background(), testScope, created.ID, UpdateObjective{Status: &completed})
	require.NoError(t, err)

	active := model.ObjectiveStatusActive
	_, err = svc.Update(context.Background(), testScope, created.ID, UpdateObjective{Status: &active})

	var illegal *lifecycle.IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	assert.Equal(t, model.ObjectiveStatusCompleted, illegal.From)
	assert.Equal(t, model.ObjectiveStatusActive, illegal.To)
}

func TestUpdateNonStatusFieldsBypassStateMachine(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)
	_, err = svc.Archive(context.Background(), testScope, created.ID)
	require.NoError(t, err)

	// Archived is terminal for status changes, but other fields stay editable.
	value := 9000.0
	updated, err := svc.Update(context.Background(), testScope, created.ID, UpdateObjective{TargetValue: &value})
	require.NoError(t, err)
	assert.Equal(t, 9000.0, updated.TargetValue)
}

func TestArchiveKeepsIsActiveConsistent(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)

	archived, err := svc.Archive(context.Background(), testScope, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ObjectiveStatusArchived, archived.Status)
	assert.False(t, archived.IsActive)

	stored := repo.objectives[created.ID]
	assert.Equal(t, model.ObjectiveStatusArchived, stored.Status)
	assert.False(t, stored.IsActive)
}

func TestUpdateOutsideScopeIsInvisible(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), testScope, testCandidate())
	require.NoError(t, err)

	other := model.Scope{TenantID: "tenant-2", BrandID: "brand-1"}
	title := "Hijacked"
	_, err = svc.Update(context.Background(), other, created.ID, UpdateObjective{Title: &title})
	assert.ErrorIs(t, err, repository.ErrObjectiveNotFound)
}

var seedTitles = []string{
	"Grow TikTok followers in Q3",
	"Reduce newsletter churn rate",
	"Boost webinar signups",
	"Improve organic search ranking",
	"Increase referral traffic volume",
}

func seedObjectives(t *testing.T, svc *ObjectiveService, n int) []string {
	t.Helper()
	require.LessOrEqual(t, n, len(seedTitles))

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c := testCandidate()
		c.Title = seedTitles[i]
		created, err := svc.Create(context.Background(), testScope, c)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}
	return ids
}

func TestBulkApplyArchivesAllTargets(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)
	ids := seedObjectives(t, svc, 5)

	plan, err := svc.BulkApply(context.Background(), testScope, ids, bulk.OpDelete, bulk.Updates{})
	require.NoError(t, err)
	assert.Len(t, plan.IDs, 5)

	for _, id := range ids {
		stored := repo.objectives[id]
		assert.Equal(t, model.ObjectiveStatusArchived, stored.Status)
		assert.False(t, stored.IsActive)
	}
}

func TestBulkApplyOversizedSelection(t *testing.T) {
	svc := newTestService(newFakeObjectiveRepo())

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("obj-%d", i)
	}
	_, err := svc.BulkApply(context.Background(), testScope, ids, bulk.OpDelete, bulk.Updates{})

	var size *bulk.SizeExceededError
	require.True(t, errors.As(err, &size))
	assert.Equal(t, 51, size.Requested)
}

func TestBulkApplyRejectsIllegalPerTargetTransition(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)
	ids := seedObjectives(t, svc, 2)

	// Complete the first target; completed -> active is illegal.
	completed := model.ObjectiveStatusCompleted
	_, err := svc.Update(context.Background(), testScope, ids[0], UpdateObjective{Status: &completed})
	require.NoError(t, err)

	_, err = svc.BulkApply(context.Background(), testScope, ids, bulk.OpActivate, bulk.Updates{})
	var illegal *lifecycle.IllegalTransitionError
	assert.True(t, errors.As(err, &illegal))
}

func TestBulkApplySkipsTargetsAlreadyInStatus(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)
	ids := seedObjectives(t, svc, 2)

	// Both already active; activate carries no status change for them.
	_, err := svc.BulkApply(context.Background(), testScope, ids, bulk.OpActivate, bulk.Updates{})
	assert.NoError(t, err)
}

func TestBulkApplyUpdatePriority(t *testing.T) {
	repo := newFakeObjectiveRepo()
	svc := newTestService(repo)
	ids := seedObjectives(t, svc, 3)

	prio := model.PriorityHigh
	_, err := svc.BulkApply(context.Background(), testScope, ids, bulk.OpUpdatePriority, bulk.Updates{Priority: &prio})
	require.NoError(t, err)

	for _, id := range ids {
		assert.Equal(t, model.PriorityHigh, repo.objectives[id].Priority)
	}
}
