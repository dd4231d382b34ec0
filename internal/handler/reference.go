package handler

import (
	"log/slog"
	"net/http"

	"github.com/brandpulse/okrops/internal/service"
)

type ReferenceHandler struct {
	referenceService *service.ReferenceService
}

func NewReferenceHandler(referenceService *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		referenceService: referenceService,
	}
}

func (h *ReferenceHandler) MetricTypes(w http.ResponseWriter, r *http.Request) {
	metricTypes, err := h.referenceService.MetricTypes()
	if err != nil {
		slog.Error("failed to load metric types", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load metric types", "internal")
		return
	}
	writeJSON(w, http.StatusOK, metricTypes)
}

func (h *ReferenceHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.referenceService.Platforms()
	if err != nil {
		slog.Error("failed to load platforms", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load platforms", "internal")
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

func (h *ReferenceHandler) TargetDates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.referenceService.TargetDates()
	if err != nil {
		slog.Error("failed to load target dates", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load target dates", "internal")
		return
	}
	writeJSON(w, http.StatusOK, dates)
}
