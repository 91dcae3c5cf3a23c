// Package metrics holds the Prometheus collectors for NicheScout.
// Recording is always safe; collectors are exported only after Init.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nichescout"

// UnknownTool is the tool label for calls to tools the session does not
// offer, keeping the label set bounded by the discovered tools.
const UnknownTool = "unknown"

var (
	analysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed product analyses by mode and outcome.",
	}, []string{"mode", "outcome"})

	agentSteps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "agent_steps",
		Help:      "Model turns used per agent run.",
		Buckets:   []float64{1, 2, 3, 5, 8, 10, 12, 15},
	})

	toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_calls_total",
		Help:      "Tool invocations by tool and result.",
	}, []string{"tool", "result"})

	challengesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_challenges_total",
		Help:      "Bot-challenge responses detected in tool results.",
	})

	chartFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chart_fallbacks_total",
		Help:      "Chart synthesis passes that fell back to empty series.",
	}, []string{"reason"})

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 15, 30, 60, 120},
	}, []string{"method", "route"})
)

var registerOnce sync.Once

// Init registers all collectors with the default registry.
// Must be called once at startup; later calls are no-ops.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			analysesTotal,
			agentSteps,
			toolCallsTotal,
			challengesTotal,
			chartFallbacksTotal,
			httpRequestsTotal,
			httpDuration,
		)
	})
}

// RecordAnalysis counts a finished analysis. mode is "mock" or "live";
// outcome is "ok", "blocked" or "error".
func RecordAnalysis(mode, outcome string) {
	analysesTotal.WithLabelValues(mode, outcome).Inc()
}

func ObserveAgentSteps(steps int) {
	agentSteps.Observe(float64(steps))
}

func RecordToolCall(tool string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	toolCallsTotal.WithLabelValues(tool, result).Inc()
}

func RecordChallenge() {
	challengesTotal.Inc()
}

// RecordChartFallback counts a chart pass that returned empty series.
func RecordChartFallback(reason string) {
	chartFallbacksTotal.WithLabelValues(reason).Inc()
}

func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
