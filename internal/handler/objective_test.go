package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/okrops/internal/cache"
	"github.com/brandpulse/okrops/internal/ctxkeys"
	"github.com/brandpulse/okrops/internal/middleware"
	"github.com/brandpulse/okrops/internal/model"
	"github.com/brandpulse/okrops/internal/repository"
	"github.com/brandpulse/okrops/internal/service"
	"github.com/brandpulse/okrops/internal/validation"
)

// memObjectiveRepo is a map-backed ObjectiveRepository for handler tests.
type memObjectiveRepo struct {
	objectives map[string]*model.Objective
}

func (r *memObjectiveRepo) Create(o *model.Objective) error {
	copied := *o
	r.objectives[o.ID] = &copied
	return nil
}

func (r *memObjectiveRepo) ByID(tenantID, brandID, id string) (*model.Objective, error) {
	o, ok := r.objectives[id]
	if !ok || o.TenantID != tenantID || o.BrandID != brandID {
		return nil, repository.ErrObjectiveNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *memObjectiveRepo) Objectives(tenantID, brandID string, activeOnly bool) ([]*model.Objective, error) {
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

func (r *memObjectiveRepo) Update(o *model.Objective) error {
	_, ok := r.objectives[o.ID]
	if !ok {
		return repository.ErrObjectiveNotFound
	}
	copied := *o
	r.objectives[o.ID] = &copied
	return nil
}

func (r *memObjectiveRepo) UpdateFields(tenantID, brandID string, ids []string, status *string, priority *int, category *string) (int64, error) {
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
		rows++
	}
	return rows, nil
}

type memReferenceRepo struct{}

func (memReferenceRepo) MetricTypes() (map[int64]model.MetricType, error) {
	return map[int64]model.MetricType{
		1: {ID: 1, Name: "Likes", Category: model.MetricCategoryEngagement},
	}, nil
}

func (memReferenceRepo) Platforms() (map[int64]model.Platform, error) {
	return map[int64]model.Platform{
		1: {ID: 1, Name: "Instagram", Category: model.PlatformCategorySocialMedia},
	}, nil
}

func (memReferenceRepo) TargetDates() (map[int64]model.TargetDate, error) {
	return map[int64]model.TargetDate{
		1: {ID: 1, Date: time.Now().AddDate(0, 6, 0)},
	}, nil
}

type memTemplateRepo struct{}

func (memTemplateRepo) ByID(tenantID, templateID string) (*model.ObjectiveTemplate, error) {
	return nil, repository.ErrTemplateNotFound
}

func (memTemplateRepo) Templates(tenantID string) ([]*model.ObjectiveTemplate, error) {
	return nil, nil
}

var handlerScope = model.Scope{TenantID: "tenant-1", BrandID: "brand-1"}

func newTestHandler() (*ObjectiveHandler, *memObjectiveRepo) {
	repo := &memObjectiveRepo{objectives: make(map[string]*model.Objective)}
	svc := service.NewObjectiveService(
		repo,
		service.NewReferenceService(memReferenceRepo{}),
		memTemplateRepo{},
		cache.NewSynchronizer(),
		validation.DefaultDuplicateThreshold,
	)
	return NewObjectiveHandler(svc), repo
}

// scoped injects the tenant scope the auth middleware would provide.
func scoped(r *http.Request) *http.Request {
	return r.WithContext(ctxkeys.WithScope(r.Context(), handlerScope))
}

func newMux(h *ObjectiveHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/objectives", h.List)
	mux.HandleFunc("GET /api/objectives/{id}", h.Get)
	mux.HandleFunc("POST /api/objectives", h.Create)
	mux.HandleFunc("PATCH /api/objectives/{id}", h.Update)
	mux.HandleFunc("DELETE /api/objectives/{id}", h.Archive)
	mux.HandleFunc("POST /api/objectives/bulk", h.Bulk)
	mux.HandleFunc("POST /api/objectives/validate", h.Validate)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := scoped(httptest.NewRequest(method, path, &buf))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func createPayload(title string) map[string]any {
	return map[string]any{
		"title":          title,
		"target_value":   5000,
		"metric_type_id": 1,
		"target_date_id": 1,
		"granularity":    model.GranularityWeekly,
	}
}

func TestCreateObjectiveEndpoint(t *testing.T) {
	h, repo := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives", createPayload("Increase Instagram Engagement"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Objective
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.Equal(t, model.ObjectiveStatusActive, created.Status)
	assert.NotNil(t, repo.objectives[created.ID])
}

func TestCreateObjectiveValidationFailure(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	payload := createPayload("ab") // too short
	payload["target_value"] = -5

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives", payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Code    string            `json:"code"`
		Details validation.Result `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Code)
	assert.False(t, resp.Details.Valid)
	assert.GreaterOrEqual(t, len(resp.Details.Errors), 2)
}

func TestCreateObjectiveDuplicate(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives", createPayload("Increase Instagram Engagement"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/objectives", createPayload("increase instagram engagement "))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), validation.CodeDuplicateTitle)
}

func TestGetObjectiveNotFound(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodGet, "/api/objectives/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateObjectiveIllegalTransition(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives", createPayload("Grow newsletter audience"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Objective
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, mux, http.MethodPatch, "/api/objectives/"+created.ID,
		map[string]any{"status": model.ObjectiveStatusCompleted})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodPatch, "/api/objectives/"+created.ID,
		map[string]any{"status": model.ObjectiveStatusActive})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "illegal_transition")
	assert.Contains(t, rec.Body.String(), model.ObjectiveStatusCompleted)
}

func TestArchiveEndpointSoftDeletes(t *testing.T) {
	h, repo := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives", createPayload("Boost TikTok reach"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Objective
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, mux, http.MethodDelete, "/api/objectives/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := repo.objectives[created.ID]
	require.NotNil(t, stored, "archive must never remove the row")
	assert.Equal(t, model.ObjectiveStatusArchived, stored.Status)
}

func TestBulkEndpointOversized(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	ids := make([]string, 51)
	for i := range ids {
		ids[i] = fmt.Sprintf("obj-%d", i)
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives/bulk",
		map[string]any{"ids": ids, "operation": "delete"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bulk_size_exceeded")
}

func TestBulkEndpointEmptySelection(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives/bulk",
		map[string]any{"ids": []string{}, "operation": "pause"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bulk_selection_empty")
}

func TestBulkEndpointMissingPriority(t *testing.T) {
	h, _ := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives/bulk",
		map[string]any{"ids": []string{"a"}, "operation": "update_priority"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_required_field")
}

func TestValidateEndpointDryRun(t *testing.T) {
	h, repo := newTestHandler()
	mux := newMux(h)

	rec := doJSON(t, mux, http.MethodPost, "/api/objectives/validate", createPayload("Launch referral program"))
	require.Equal(t, http.StatusOK, rec.Code)

	var result validation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Empty(t, repo.objectives, "dry-run must not persist anything")
}

func TestRequireScopeRejectsUnauthenticated(t *testing.T) {
	h, _ := newTestHandler()

	protected := middleware.RequireScope(h.List)
	req := httptest.NewRequest(http.MethodGet, "/api/objectives", nil)
	rec := httptest.NewRecorder()
	protected(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScopeRoundTrip(t *testing.T) {
	ctx := ctxkeys.WithScope(context.Background(), handlerScope)
	assert.Equal(t, handlerScope, ctxkeys.Scope(ctx))
	assert.True(t, ctxkeys.Scope(context.Background()).Empty())
}
