package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transform requests
	TransformRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texttransform_requests_total",
			Help: "Number of transform requests by method and result",
		},
		[]string{"method", "result"}, // result: success|invalid|error
	)
	EmptyCandidateFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "texttransform_empty_candidate_fallbacks_total",
			Help: "Number of responses where the first candidate had no text",
		},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texttransform_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)
	LLMDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "texttransform_llm_duration_seconds",
			Help:    "Duration of LLM calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms..51s
		},
		[]string{"model"},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "texttransform_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		TransformRequests,
		EmptyCandidateFallbacks,
		LLMRequests,
		LLMDurationSeconds,
		Errors,
	)
}

// StartMetricsServer blocks serving /metrics on addr.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// Transform
func IncTransformRequest(method, result string) {
	TransformRequests.WithLabelValues(method, result).Inc()
}

func IncEmptyCandidateFallback() {
	EmptyCandidateFallbacks.Inc()
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

func ObserveLLMDuration(model string, d time.Duration) {
	LLMDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
