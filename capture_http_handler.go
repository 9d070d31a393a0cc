package capture

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CaptureHttpHandler accepts raw image bytes posted by the camera.
type CaptureHttpHandler struct {
	pipeline      *Pipeline
	status        *CaptureStatus
	maxUploadSize int64
}

func NewCaptureHttpHandler(pipeline *Pipeline, status *CaptureStatus, maxUploadSize int64) *CaptureHttpHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultServerConfig().MaxUploadSize
	}
	return &CaptureHttpHandler{
		pipeline:      pipeline,
		status:        status,
		maxUploadSize: maxUploadSize,
	}
}

func (s *CaptureHttpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Debug().Str("component", "CAPTURE_HTTP").Msg("serveHttp called")
	defer req.Body.Close()

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeCaptureError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	if s.status.Draining() {
		err := "service is going down"
		log.Warn().Str("component", "CAPTURE_HTTP").Msg("conditions for accepting new requests are not met: " + err)
		writeCaptureError(w, http.StatusServiceUnavailable, err)
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, s.maxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Str("component", "CAPTURE_HTTP").Int64("limit", tooLarge.Limit).Msg("payload too large")
			writeCaptureError(w, http.StatusRequestEntityTooLarge, "image payload too large")
			return
		}
		log.Warn().Str("component", "CAPTURE_HTTP").Err(err).Msg("could not read request body")
		writeCaptureError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	result := s.pipeline.HandleCapture(req.Context(), raw)
	writeJSON(w, result.HTTPStatus, result.Response)
}

func writeCaptureError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, ErrorResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(js); err != nil {
		log.Error().Err(err).Str("component", "CAPTURE_HTTP").Msg("http write() failed")
	}
}
