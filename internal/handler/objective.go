package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brandpulse/okrops/internal/bulk"
	"github.com/brandpulse/okrops/internal/cache"
	"github.com/brandpulse/okrops/internal/ctxkeys"
	"github.com/brandpulse/okrops/internal/lifecycle"
	"github.com/brandpulse/okrops/internal/repository"
	"github.com/brandpulse/okrops/internal/service"
	"github.com/brandpulse/okrops/internal/validation"
)

type ObjectiveHandler struct {
	objectiveService *service.ObjectiveService
}

func NewObjectiveHandler(objectiveService *service.ObjectiveService) *ObjectiveHandler {
	return &ObjectiveHandler{
		objectiveService: objectiveService,
	}
}

type objectiveRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	TargetValue  float64 `json:"target_value"`
	MetricTypeID int64   `json:"metric_type_id"`
	PlatformID   *int64  `json:"platform_id"`
	TargetDateID int64   `json:"target_date_id"`
	Granularity  string  `json:"granularity"`
	Priority     *int    `json:"priority"`
	Category     string  `json:"category"`
	TemplateID   *string `json:"template_id"`
}

func (req objectiveRequest) candidate(tenantID, brandID string) validation.CandidateObjective {
	return validation.CandidateObjective{
		TenantID:     tenantID,
		BrandID:      brandID,
		Title:        req.Title,
		Description:  req.Description,
		TargetValue:  req.TargetValue,
		MetricTypeID: req.MetricTypeID,
		PlatformID:   req.PlatformID,
		TargetDateID: req.TargetDateID,
		Granularity:  req.Granularity,
		Priority:     req.Priority,
		Category:     req.Category,
		TemplateID:   req.TemplateID,
	}
}

func (h *ObjectiveHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())
	activeOnly := r.URL.Query().Get("active") == "true"

	objectives, err := h.objectiveService.Objectives(scope, activeOnly)
	if err != nil {
		slog.Error("failed to list objectives", "error", err, "tenant_id", scope.TenantID)
		writeError(w, http.StatusInternalServerError, "failed to load objectives", "internal")
		return
	}

	writeJSON(w, http.StatusOK, objectives)
}

func (h *ObjectiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())
	objectiveID := r.PathValue("id")

	objective, err := h.objectiveService.ByID(scope, objectiveID)
	if errors.Is(err, repository.ErrObjectiveNotFound) {
		writeError(w, http.StatusNotFound, "objective not found", "not_found")
		return
	}
	if err != nil {
		slog.Error("failed to get objective", "error", err, "objective_id", objectiveID)
		writeError(w, http.StatusInternalServerError, "failed to load objective", "internal")
		return
	}

	writeJSON(w, http.StatusOK, objective)
}

func (h *ObjectiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())

	var req objectiveRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "bad_request")
		return
	}

	candidate := req.candidate(scope.TenantID, scope.BrandID)

	var created any
	if req.TemplateID != nil {
		created, err = h.objectiveService.CreateFromTemplate(r.Context(), scope, *req.TemplateID, candidate)
	} else {
		created, err = h.objectiveService.Create(r.Context(), scope, candidate)
	}

	if err != nil {
		h.writeServiceError(w, scope.TenantID, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Validate is the dry-run endpoint: same rules as Create, nothing persisted.
func (h *ObjectiveHandler) Validate(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())

	var req objectiveRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "bad_request")
		return
	}

	result, err := h.objectiveService.Validate(scope, req.candidate(scope.TenantID, scope.BrandID))
	if err != nil {
		slog.Error("failed to validate objective", "error", err, "tenant_id", scope.TenantID)
		writeError(w, http.StatusInternalServerError, "validation unavailable", "internal")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type updateRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	TargetValue  *float64 `json:"target_value"`
	CurrentValue *float64 `json:"current_value"`
	TargetDateID *int64   `json:"target_date_id"`
	Granularity  *string  `json:"granularity"`
	Priority     *int     `json:"priority"`
	Category     *string  `json:"category"`
	Status       *string  `json:"status"`
}

func (h *ObjectiveHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())
	objectiveID := r.PathValue("id")

	var req updateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "bad_request")
		return
	}

	updated, err := h.objectiveService.Update(r.Context(), scope, objectiveID, service.UpdateObjective{
		Title:        req.Title,
		Description:  req.Description,
		TargetValue:  req.TargetValue,
		CurrentValue: req.CurrentValue,
		TargetDateID: req.TargetDateID,
		Granularity:  req.Granularity,
		Priority:     req.Priority,
		Category:     req.Category,
		Status:       req.Status,
	})
	if err != nil {
		h.writeServiceError(w, scope.TenantID, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// Archive soft-deletes the objective; the record stays queryable.
func (h *ObjectiveHandler) Archive(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())
	objectiveID := r.PathValue("id")

	archived, err := h.objectiveService.Archive(r.Context(), scope, objectiveID)
	if err != nil {
		h.writeServiceError(w, scope.TenantID, err)
		return
	}

	writeJSON(w, http.StatusOK, archived)
}

type bulkRequest struct {
	IDs       []string `json:"ids"`
	Operation string   `json:"operation"`
	Priority  *int     `json:"priority"`
	Category  *string  `json:"category"`
}

func (h *ObjectiveHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())

	var req bulkRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body", "bad_request")
		return
	}

	plan, err := h.objectiveService.BulkApply(r.Context(), scope, req.IDs, bulk.Operation(req.Operation), bulk.Updates{
		Priority: req.Priority,
		Category: req.Category,
	})
	if err != nil {
		h.writeServiceError(w, scope.TenantID, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (h *ObjectiveHandler) Templates(w http.ResponseWriter, r *http.Request) {
	scope := ctxkeys.Scope(r.Context())

	templates, err := h.objectiveService.Templates(scope)
	if err != nil {
		slog.Error("failed to list templates", "error", err, "tenant_id", scope.TenantID)
		writeError(w, http.StatusInternalServerError, "failed to load templates", "internal")
		return
	}

	writeJSON(w, http.StatusOK, templates)
}

// writeServiceError maps core error kinds to HTTP statuses. Validation
// results carry their field errors; everything else is a flat code.
func (h *ObjectiveHandler) writeServiceError(w http.ResponseWriter, tenantID string, err error) {
	var (
		vErr      *service.ValidationFailedError
		illegal   *lifecycle.IllegalTransitionError
		size      *bulk.SizeExceededError
		empty     *bulk.EmptySelectionError
		missing   *bulk.MissingFieldError
		unknown   *bulk.UnknownOperationError
		commitErr *cache.CommitError
	)

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "objective failed validation",
			Code:    "validation_failed",
			Details: vErr.Result,
		})
	case errors.As(err, &illegal):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: illegal.Error(),
			Code:  "illegal_transition",
			Details: map[string]string{
				"from": illegal.From,
				"to":   illegal.To,
			},
		})
	case errors.As(err, &size):
		writeError(w, http.StatusBadRequest, size.Error(), "bulk_size_exceeded")
	case errors.As(err, &empty):
		writeError(w, http.StatusBadRequest, empty.Error(), "bulk_selection_empty")
	case errors.As(err, &missing):
		writeError(w, http.StatusBadRequest, missing.Error(), "missing_required_field")
	case errors.As(err, &unknown):
		writeError(w, http.StatusBadRequest, unknown.Error(), "unknown_operation")
	case errors.Is(err, service.ErrTenantScopeViolation):
		writeError(w, http.StatusForbidden, "resource is outside the caller's tenant scope", "tenant_scope_violation")
	case errors.Is(err, repository.ErrObjectiveNotFound):
		writeError(w, http.StatusNotFound, "objective not found", "not_found")
	case errors.Is(err, repository.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "template not found", "not_found")
	case errors.As(err, &commitErr):
		slog.Error("store commit failed, cache rolled back", "error", err, "tenant_id", tenantID)
		writeError(w, http.StatusBadGateway, "the change could not be saved", "commit_failed")
	default:
		slog.Error("objective operation failed", "error", err, "tenant_id", tenantID)
		writeError(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
