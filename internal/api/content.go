package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/deltakaart/atlas/internal/content"
)

func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	raw, tag, err := h.Content.Load(r.Context())
	if err != nil {
		h.Logger.Error("content load failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load content")
		return
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", tag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *Handlers) SaveContent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	tag, err := h.Content.Save(r.Context(), raw)
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.Logger.Error("content save failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save content")
		return
	}
	w.Header().Set("ETag", tag)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
