package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "appagent"

// Metrics holds the daemon's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Agent metrics
	FocusChanges *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	PanelsShown  *prometheus.CounterVec

	// Functional agent activation
	Activations       *prometheus.CounterVec
	ActivationsActive prometheus.Gauge

	// Text control metrics
	TextReplacements *prometheus.CounterVec

	// Predictor metrics
	Predictions        *prometheus.CounterVec
	PredictionDuration prometheus.Histogram

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		FocusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "focus_changes_total",
				Help:      "Focus-changed events routed to an application agent",
			},
			[]string{"agent", "new_window"},
		),
		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands dispatched, by resolving agent and outcome",
			},
			[]string{"agent", "command", "outcome"},
		),
		PanelsShown: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "panels_shown_total",
				Help:      "Panel display requests",
			},
			[]string{"panel"},
		),
		Activations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activations_total",
				Help:      "Functional agent activations by result",
			},
			[]string{"agent", "result"},
		),
		ActivationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "activations_active",
				Help:      "Functional agents currently active",
			},
		),
		TextReplacements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "text_replacements_total",
				Help:      "Abbreviation expansions and spelling corrections",
			},
			[]string{"kind"},
		),
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Predictor calls by status",
			},
			[]string{"status"},
		),
		PredictionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Predictor call latency",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
			},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "websocket_connections",
				Help:      "Connected panel renderers",
			},
		),
	}
}

// Handler serves this registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecordFocusChange(agent string, newWindow bool) {
	if m == nil {
		return
	}
	label := "false"
	if newWindow {
		label = "true"
	}
	m.FocusChanges.WithLabelValues(agent, label).Inc()
}

func (m *Metrics) RecordCommand(agent, command, outcome string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(agent, command, outcome).Inc()
}

func (m *Metrics) RecordPanel(panel string) {
	if m == nil {
		return
	}
	m.PanelsShown.WithLabelValues(panel).Inc()
}

// ActivationStarted and ActivationFinished bracket one functional agent run.
func (m *Metrics) ActivationStarted() {
	if m == nil {
		return
	}
	m.ActivationsActive.Inc()
}

func (m *Metrics) ActivationFinished(agent, result string) {
	if m == nil {
		return
	}
	m.ActivationsActive.Dec()
	m.Activations.WithLabelValues(agent, result).Inc()
}

func (m *Metrics) RecordReplacement(kind string) {
	if m == nil {
		return
	}
	m.TextReplacements.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPrediction(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(status).Inc()
	m.PredictionDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
