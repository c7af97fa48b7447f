package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type imageEntry struct {
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// ListImages enumerates the uploaded images for one category folder.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(chi.URLParam(r, "category"))

	infos, err := h.Images.List(r.Context(), category)
	if err != nil {
		h.Logger.Error("image listing failed", "category", category, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	images := make([]imageEntry, 0, len(infos))
	for _, info := range infos {
		name := info.Key
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		entry := imageEntry{
			Name:      name,
			Size:      info.Size,
			UpdatedAt: info.LastModified,
		}
		if h.ImageURL != nil {
			entry.URL = h.ImageURL(info.Key)
		}
		images = append(images, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}
