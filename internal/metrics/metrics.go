// Package metrics exposes the dashboard's prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskmate/internal/schedule"
)

const namespace = "taskmate"

// Result label values.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultError   = "error"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	scheduleBuilds  *prometheus.CounterVec
	taskSubmissions *prometheus.CounterVec
	modelRequests   *prometheus.CounterVec
	modelLatency    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		scheduleBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedule_builds_total",
				Help:      "Schedule builds by frequency and result",
			},
			[]string{"frequency", "result"},
		),
		taskSubmissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_submissions_total",
				Help:      "Task submissions by result",
			},
			[]string{"result"},
		),
		modelRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_requests_total",
				Help:      "Model flow invocations by flow and result",
			},
			[]string{"flow", "result"},
		),
		modelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_request_duration_seconds",
				Help:      "Model flow latency",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"flow"},
		),
	}
	m.reg.MustRegister(
		m.scheduleBuilds, m.taskSubmissions, m.modelRequests, m.modelLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry (nil for a nil *Metrics).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveScheduleBuild counts a build attempt. frequency is caller input;
// anything that does not parse is counted as "unknown" so the label set stays
// fixed.
func (m *Metrics) ObserveScheduleBuild(frequency, result string) {
	if m == nil {
		return
	}
	m.scheduleBuilds.WithLabelValues(frequencyLabel(frequency), result).Inc()
}

func frequencyLabel(raw string) string {
	f, err := schedule.ParseFrequency(raw)
	if err != nil {
		return "unknown"
	}
	return f.String()
}

func (m *Metrics) ObserveTaskSubmission(result string) {
	if m == nil {
		return
	}
	m.taskSubmissions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveModel(flow, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.modelRequests.WithLabelValues(flow, result).Inc()
	m.modelLatency.WithLabelValues(flow).Observe(took.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
