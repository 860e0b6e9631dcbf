// Package metrics exposes Prometheus instruments for the agent service.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/v0xg/webagent/internal/action"
	"go.uber.org/zap"
)

// Solution sources reported by ObserveSolve
const (
	SourceCache = "cache"
	SourceStore = "store"
	SourceAgent = "agent"
)

// Collector owns every instrument and the registry they live in
type Collector struct {
	registry *prometheus.Registry

	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// actions
	actionsTotal   *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec

	// solving
	solvesTotal   *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	solveActions  prometheus.Histogram
	cacheLookups  *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers the instruments under namespace on a fresh registry
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.actionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total number of executed browser actions",
		},
		[]string{"kind", "status"}, // status: ok, error, unsupported
	)

	c.actionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_duration_seconds",
			Help:      "Browser action duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)

	c.solvesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Total number of solved tasks by agent and source",
		},
		[]string{"agent", "source", "status"},
	)

	c.solveDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Task solving duration in seconds",
			Buckets:   []float64{0.01, 0.1, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"agent", "source"},
	)

	c.solveActions = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_actions",
			Help:      "Number of actions per returned solution",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		},
	)

	c.cacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prompt cache lookups by tier and result",
		},
		[]string{"tier", "result"}, // tier: memory, store
	)

	return c
}

// Registry is the registry backing /metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile dumps every registered metric to path in the Prometheus
// text format, for node_exporter's textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// RecordHTTPRequest counts one HTTP request
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveAction implements action.Recorder
func (c *Collector) ObserveAction(kind string, err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case errors.Is(err, action.ErrUnsupportedActionKind):
		status = "unsupported"
	case err != nil:
		status = "error"
	}
	c.actionsTotal.WithLabelValues(kind, status).Inc()
	c.actionDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveSolve records one /solve outcome
func (c *Collector) ObserveSolve(agentID, source string, actions int, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.solvesTotal.WithLabelValues(agentID, source, status).Inc()
	c.solveDuration.WithLabelValues(agentID, source).Observe(elapsed.Seconds())
	if err == nil {
		c.solveActions.Observe(float64(actions))
	}
}

// ObserveCache records a cache hit or miss for tier
func (c *Collector) ObserveCache(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(tier, result).Inc()
}

var _ action.Recorder = (*Collector)(nil)
