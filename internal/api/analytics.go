package api

import (
	"net/http"

	"github.com/deltakaart/atlas/internal/analytics"
)

func (h *Handlers) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var ev analytics.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Analytics.Record(r.Context(), ev); err != nil {
		h.Logger.Error("analytics record failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Analytics.Summary(r.Context())
	if err != nil {
		h.Logger.Error("analytics summary failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": sum})
}
