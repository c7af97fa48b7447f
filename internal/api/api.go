// Package api implements the HTTP handlers for the atlas backend.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/deltakaart/atlas/internal/analytics"
	"github.com/deltakaart/atlas/internal/content"
	"github.com/deltakaart/atlas/internal/layers"
	"github.com/deltakaart/atlas/internal/storage"
	"github.com/deltakaart/atlas/internal/styles"
)

// maxBodyBytes bounds request bodies; the content document is the
// largest expected payload and stays far below this.
const maxBodyBytes = 10 << 20

// Handlers carries the injected dependencies for all routes.
type Handlers struct {
	Logger    *slog.Logger
	Content   *content.Store
	Layers    *layers.Service
	Styles    styles.Store
	Images    storage.ObjectStore
	Analytics *analytics.Store

	// ImageURL builds a public URL for an image key; optional.
	ImageURL func(key string) string
	// TempDir overrides the spool location for tile inspection.
	TempDir string
}

func (h *Handlers) tempDir() string {
	if h.TempDir != "" {
		return h.TempDir
	}
	return os.TempDir()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
