package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/deltakaart/atlas/internal/layers"
	mylog "github.com/deltakaart/atlas/internal/logger"
	"github.com/deltakaart/atlas/internal/mbtiles"
	"github.com/deltakaart/atlas/internal/observability"
)

// InspectTiles downloads a tile archive, spools it to a temp file and
// returns the diagnostic report. The temp file is removed on every exit
// path; the stored archive is never touched.
func (h *Handlers) InspectTiles(w http.ResponseWriter, r *http.Request) {
	layerID := strings.TrimSpace(chi.URLParam(r, "layerID"))
	if layerID == "" {
		writeError(w, http.StatusBadRequest, "layer id is required")
		return
	}
	ctx := mylog.WithLayer(r.Context(), layerID)

	rc, info, err := h.Layers.DownloadDebug(ctx, layerID)
	if err != nil {
		if errors.Is(err, layers.ErrLayerNotFound) {
			observability.IncInspection("not_found")
			writeError(w, http.StatusNotFound, "no file found for layer "+layerID)
			return
		}
		observability.IncInspection("error")
		h.Logger.ErrorContext(ctx, "archive download failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to download archive")
		return
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp(h.tempDir(), "mbtiles-debug-*.db")
	if err != nil {
		observability.IncInspection("error")
		h.Logger.ErrorContext(ctx, "temp file creation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to stage archive")
		return
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	_, copyErr := io.Copy(tmp, rc)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		observability.IncInspection("error")
		h.Logger.ErrorContext(ctx, "archive spool failed", "copy_err", copyErr, "close_err", closeErr)
		writeError(w, http.StatusInternalServerError, "failed to stage archive")
		return
	}

	rep, err := mbtiles.Inspect(tmpPath)
	if err != nil {
		observability.IncInspection("error")
		h.Logger.ErrorContext(ctx, "archive inspection failed", "file", info.Filename, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to inspect archive")
		return
	}

	observability.IncInspection("ok")
	writeJSON(w, http.StatusOK, map[string]any{
		"layerId":  layerID,
		"filename": info.Filename,
		"report":   rep,
	})
}
