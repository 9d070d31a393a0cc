package capture

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewCaptureMux wires every endpoint of the capture service.
func NewCaptureMux(s *Services, maxUploadSize int64, latestImageURL string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", NewLandingPageHandler(s.Status, latestImageURL))
	mux.Handle("/capture", InstrumentCaptureHandler(NewCaptureHttpHandler(s.Pipeline, s.Status, maxUploadSize)))
	mux.Handle(LatestImagePath, NewLatestImageHandler(s.Slot))
	mux.Handle("/capture-status", NewCaptureStatusHandler(s.Status))
	// expose metrics for prometheus
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
