// Package telemetry exposes engine activity as Prometheus metrics. Metrics
// implements the observer hooks of the scoring, grading, weakness and jobs
// packages.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/courtedge/internal/domain"
)

const namespace = "courtedge"

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	EdgesScored     *prometheus.CounterVec
	EdgeScore       *prometheus.HistogramVec
	ActionableEdges *prometheus.CounterVec
	Grades          *prometheus.CounterVec
	Triggers        *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	WSClients       prometheus.Gauge
}

// New registers the collectors plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EdgesScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_scored_total",
			Help:      "Edge results produced, by model and tier.",
		}, []string{"model", "tier"}),
		EdgeScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "edge_score",
			Help:      "Distribution of normalized edge scores.",
			Buckets:   []float64{50, 55, 60, 65, 70, 75, 80, 85, 90, 95, 100},
		}, []string{"model"}),
		ActionableEdges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actionable_edges_total",
			Help:      "Edge results above the actionable threshold.",
		}, []string{"model"}),
		Grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grades_total",
			Help:      "Grading writes by kind (pick, outcome, lines) and result.",
		}, []string{"kind", "result"}),
		Triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weakness_triggers_total",
			Help:      "Weakness trigger detections and evaluations.",
		}, []string{"trigger", "event"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by status.",
		}, []string{"job", "status"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job duration.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"job"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected websocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EdgesScored, m.EdgeScore, m.ActionableEdges, m.Grades, m.Triggers,
		m.JobRuns, m.JobDuration, m.HTTPRequests, m.HTTPDuration, m.WSClients,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveEdge records one scored edge.
func (m *Metrics) ObserveEdge(res domain.EdgeResult) {
	model := string(res.Model)
	m.EdgesScored.WithLabelValues(model, string(res.Tier)).Inc()
	m.EdgeScore.WithLabelValues(model).Observe(res.Edge)
	if res.Actionable {
		m.ActionableEdges.WithLabelValues(model).Inc()
	}
}

// ObserveGrade records one grading write.
func (m *Metrics) ObserveGrade(kind, result string) {
	m.Grades.WithLabelValues(kind, result).Inc()
}

// ObserveTrigger records a trigger detection or evaluation.
func (m *Metrics) ObserveTrigger(trigger domain.TriggerType, event string) {
	m.Triggers.WithLabelValues(string(trigger), event).Inc()
}

// ObserveJob records one scheduled job run.
func (m *Metrics) ObserveJob(job string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(method string, code int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}
