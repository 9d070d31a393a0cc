package capture

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LatestImagePath is the fixed address of the newest annotated image.
const LatestImagePath = "/uploads/" + LatestAnnotatedFileName

type LatestImageHandler struct {
	slot *AnnotatedSlot
}

func NewLatestImageHandler(slot *AnnotatedSlot) *LatestImageHandler {
	return &LatestImageHandler{slot: slot}
}

func (h *LatestImageHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	content, modTime, err := h.slot.Read()
	if errors.Is(err, ErrNoLatestImage) {
		http.Error(w, "no annotated image yet", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_HTTP").Msg("could not read annotated image")
		http.Error(w, "could not read annotated image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, req, LatestAnnotatedFileName, modTime, content)
}
