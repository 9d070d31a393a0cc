package capture

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type CaptureStatusHandler struct {
	status *CaptureStatus
}

func NewCaptureStatusHandler(status *CaptureStatus) *CaptureStatusHandler {
	return &CaptureStatusHandler{status: status}
}

func (s *CaptureStatusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Debug().Str("component", "CAPTURE_STATUS").Msg("serveHttp called")
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	js, err := json.Marshal(s.status.Snapshot())
	if err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_STATUS").Msg("marshal status")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_STATUS").Msg("http write() failed")
	}
}
