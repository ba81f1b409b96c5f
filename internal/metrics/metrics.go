// Package metrics exposes Prometheus instruments for the synthesis pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relptts"

// Stage labels.
const (
	StageTargets     = "targets"
	StageSelect      = "select"
	StageConcatenate = "concatenate"
	StageEncode      = "encode"
)

var (
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of synthesis pipeline stages in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	utterancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of synthesized utterances",
		},
		[]string{"unit_type", "status"}, // status: ok, malformed, lookup, signal, timeout, error
	)

	requestsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_active",
			Help:      "Number of synthesis requests in flight",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	survivorsPerPosition = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "viterbi_survivors",
			Help:      "Candidates surviving pruning per target position",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
		},
	)

	audioSecondsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_seconds_total",
			Help:      "Total seconds of audio synthesized",
		},
	)

	allMetrics = []prometheus.Collector{
		stageDuration,
		utterancesTotal,
		requestsActive,
		httpRequestsTotal,
		survivorsPerPosition,
		audioSecondsTotal,
	}
)

func RecordStage(stage string, seconds float64) {
	stageDuration.WithLabelValues(stage).Observe(seconds)
}

func RecordUtterance(unitType, status string, audioSeconds float64) {
	utterancesTotal.WithLabelValues(unitType, status).Inc()

	if audioSeconds > 0 {
		audioSecondsTotal.Add(audioSeconds)
	}
}

func RecordSurvivors(n int) {
	survivorsPerPosition.Observe(float64(n))
}

func RecordHTTPRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}

// RequestStarted increments the in-flight gauge and returns the matching
// decrement.
func RequestStarted() func() {
	requestsActive.Inc()
	return requestsActive.Dec
}

// NewRegistry returns a registry holding the pipeline metrics plus Go runtime
// and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	for _, c := range allMetrics {
		reg.MustRegister(c)
	}

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
