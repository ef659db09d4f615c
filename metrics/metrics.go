package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "moodping",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodping",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moodping",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodping",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "LLM completions by provider and outcome (success, error, timeout).",
		},
		[]string{"provider", "outcome"},
	)

	llmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moodping",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM completions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
		},
		[]string{"provider"},
	)

	extractions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodping",
			Subsystem: "llm",
			Name:      "extractions_total",
			Help:      "Text fields recovered from LLM output, by field and extractor.",
		},
		[]string{"field", "source"},
	)

	eventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodping",
			Subsystem: "events",
			Name:      "ingested_total",
			Help:      "Funnel events received, split into inserted and duplicate.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight,
		httpRequests,
		httpDuration,
		llmCalls,
		llmDuration,
		extractions,
		eventsIngested,
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordLLMCall(provider, outcome string, duration time.Duration) {
	llmCalls.WithLabelValues(provider, outcome).Inc()
	llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordExtraction(field, source string) {
	extractions.WithLabelValues(field, source).Inc()
}

func RecordEventIngested(inserted bool) {
	result := "duplicate"
	if inserted {
		result = "inserted"
	}
	eventsIngested.WithLabelValues(result).Inc()
}
