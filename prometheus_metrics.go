package capture

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	inFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "capture_in_flight_requests",
		Help: "Number of captures currently being processed.",
	})
	counter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_api_requests_total",
			Help: "A counter for requests to the wrapped handler.",
		},
		[]string{"code", "method"},
	)

	// duration is partitioned by the HTTP method and handler. It uses custom
	// buckets based on the expected request duration.
	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capture_request_duration_seconds",
			Help:    "A histogram of latencies for requests.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"handler", "method"},
	)

	// requestSize has no labels, making it a zero-dimensional ObserverVec.
	requestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capture_request_size_bytes",
			Help:    "A histogram of request sizes for captures.",
			Buckets: []float64{1000, 50000, 200000, 1000000, 5000000, 10000000},
		},
		[]string{},
	)

	stageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capture_stage_total",
			Help: "Pipeline stage outcomes.",
		},
		[]string{"stage", "outcome"},
	)

	registerOnce sync.Once
)

// RegisterMetrics adds the capture metrics to the default registry. Safe to
// call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(inFlightGauge, counter, duration, requestSize, stageCounter)
	})
}

func observeStage(stage Stage, outcome string) {
	stageCounter.WithLabelValues(stage.String(), outcome).Inc()
}

// InstrumentCaptureHandler wraps the ingestion handler to provide prometheus metrics
func InstrumentCaptureHandler(handler http.Handler) http.Handler {
	RegisterMetrics()

	return promhttp.InstrumentHandlerInFlight(inFlightGauge,
		promhttp.InstrumentHandlerDuration(duration.MustCurryWith(prometheus.Labels{"handler": "capture"}),
			promhttp.InstrumentHandlerCounter(counter,
				promhttp.InstrumentHandlerRequestSize(requestSize, handler),
			),
		),
	)
}
