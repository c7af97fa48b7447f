package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deltakaart/atlas/internal/layers"
	mylog "github.com/deltakaart/atlas/internal/logger"
)

func (h *Handlers) ListLayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Layers.List(r.Context())
	if err != nil {
		h.Logger.Error("layer listing failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list layers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layers": list})
}

func (h *Handlers) DownloadLayer(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}
	ctx := mylog.WithLayer(r.Context(), layerID)

	rc, info, err := h.Layers.Download(ctx, layerID)
	if err != nil {
		if errors.Is(err, layers.ErrLayerNotFound) {
			writeError(w, http.StatusNotFound, "no file found for layer "+layerID)
			return
		}
		h.Logger.ErrorContext(ctx, "layer download failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to download layer")
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Filename))
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// headers are gone; all we can do is log
		h.Logger.ErrorContext(ctx, "layer stream interrupted", "err", err)
	}
}

func (h *Handlers) DeleteLayer(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}
	ctx := mylog.WithLayer(r.Context(), layerID)

	deleted, found, err := h.Layers.Delete(ctx, layerID)
	if err != nil {
		if errors.Is(err, layers.ErrLayerNotFound) {
			writeError(w, http.StatusNotFound, "no files found for layer "+layerID)
			return
		}
		h.Logger.ErrorContext(ctx, "layer delete failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete layer")
		return
	}
	h.Logger.InfoContext(ctx, "layer deleted", "found", len(found), "deleted", len(deleted))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"found":   found,
		"deleted": deleted,
	})
}
