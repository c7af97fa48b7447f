package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deltakaart/atlas/internal/styles"
)

func (h *Handlers) GetStyle(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}

	cfg, err := h.Styles.Get(r.Context(), layerID)
	if err != nil {
		if errors.Is(err, styles.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no style configured for layer "+layerID)
			return
		}
		h.Logger.Error("style lookup failed", "layer", layerID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load style")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) SetStyle(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}

	var cfg styles.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	if cfg.LayerID == "" {
		cfg.LayerID = layerID
	} else if cfg.LayerID != layerID {
		writeError(w, http.StatusBadRequest, "layerId in body does not match URL")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := h.Styles.Set(r.Context(), cfg); err != nil {
		h.Logger.Error("style save failed", "layer", layerID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save style")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handlers) DeleteStyle(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}

	if err := h.Styles.Delete(r.Context(), layerID); err != nil {
		if errors.Is(err, styles.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no style configured for layer "+layerID)
			return
		}
		h.Logger.Error("style delete failed", "layer", layerID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete style")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Layer ordering is acknowledged but not persisted yet; the admin UI
// keeps its own order until a real persistence layer lands.

type orderRequest struct {
	Order *int `json:"order"`
}

func (h *Handlers) ReorderLayer(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}

	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Order == nil || *req.Order < 0 {
		writeError(w, http.StatusBadRequest, "order must be a non-negative integer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"layerId":   layerID,
		"order":     *req.Order,
		"persisted": false,
	})
}

type bulkOrderRequest struct {
	Layers []struct {
		LayerID string `json:"layerId"`
		Order   *int   `json:"order"`
	} `json:"layers"`
}

func (h *Handlers) BulkReorderLayers(w http.ResponseWriter, r *http.Request) {
	var req bulkOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Layers) == 0 {
		writeError(w, http.StatusBadRequest, "layers must be a non-empty list")
		return
	}
	for _, l := range req.Layers {
		if strings.TrimSpace(l.LayerID) == "" {
			writeError(w, http.StatusBadRequest, "every entry needs a layerId")
			return
		}
		if l.Order == nil || *l.Order < 0 {
			writeError(w, http.StatusBadRequest, "every entry needs a non-negative order")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(req.Layers),
		"persisted": false,
	})
}
