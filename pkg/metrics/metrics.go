// Package metrics exposes Prometheus collectors for the query pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ddp_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_llm_requests_total",
			Help: "Total number of model calls by agent and outcome.",
		},
		[]string{"agent", "model", "status"},
	)
	llmTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_llm_tokens_total",
			Help: "Tokens consumed by model calls.",
		},
		[]string{"agent", "model", "kind"},
	)
	llmLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ddp_llm_request_duration_seconds",
			Help:    "Model call latency including retries.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"agent"},
	)
	llmRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_llm_retries_total",
			Help: "Model call retries by agent.",
		},
		[]string{"agent"},
	)

	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_query_executions_total",
			Help: "Generated queries executed against target databases.",
		},
		[]string{"status"},
	)
	queryExecutionMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ddp_query_execution_ms",
			Help:    "Target query execution and fetch time in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 30000},
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ddp_query_rows_returned",
			Help:    "Rows returned per executed query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	catalogImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ddp_catalog_imported_total",
			Help: "Tables and columns written by catalog imports.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		llmRequestsTotal,
		llmTokensTotal,
		llmLatencySeconds,
		llmRetriesTotal,
		queryExecutionsTotal,
		queryExecutionMs,
		queryRowsReturned,
		catalogImportsTotal,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveLLMCall records one logical model call. status is "success" or an llm error type.
func ObserveLLMCall(agent, model, status string, promptTokens, completionTokens int, elapsed time.Duration) {
	llmRequestsTotal.WithLabelValues(agent, model, status).Inc()
	llmLatencySeconds.WithLabelValues(agent).Observe(elapsed.Seconds())
	if promptTokens > 0 {
		llmTokensTotal.WithLabelValues(agent, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		llmTokensTotal.WithLabelValues(agent, model, "completion").Add(float64(completionTokens))
	}
}

func IncrementLLMRetry(agent string) {
	llmRetriesTotal.WithLabelValues(agent).Inc()
}

func ObserveQueryExecution(status string, rows int, elapsedMS float64) {
	queryExecutionsTotal.WithLabelValues(status).Inc()
	queryExecutionMs.Observe(elapsedMS)
	if rows >= 0 {
		queryRowsReturned.Observe(float64(rows))
	}
}

func ObserveCatalogImport(tables, columns int) {
	if tables > 0 {
		catalogImportsTotal.WithLabelValues("table").Add(float64(tables))
	}
	if columns > 0 {
		catalogImportsTotal.WithLabelValues("column").Add(float64(columns))
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
