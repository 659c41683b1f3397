package server

import (
	"errors"
	"net/http"
	"strings"

	"Audiotheque/logger"
	"Audiotheque/storage"

	"github.com/gorilla/mux"
)

// HandleMedia streams an object from the media host with Range support.
func (h *APIHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" || strings.Contains(key, "..") || !strings.HasPrefix(key, storage.AudioPrefix) {
		http.NotFound(w, r)
		return
	}

	obj, info, err := h.media.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			http.NotFound(w, r)
			return
		}
		logger.Error("Failed to open media", logger.String("key", key), logger.ErrorField(err))
		http.Error(w, "media unavailable", http.StatusBadGateway)
		return
	}
	defer obj.Close()

	ct := info.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = storage.ContentTypeOf(key)
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=86400")

	http.ServeContent(w, r, key, info.LastModified, obj)
}
