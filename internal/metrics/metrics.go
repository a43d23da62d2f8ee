// Package metrics exposes the monitor's counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Tick metrics
	Ticks        prometheus.Counter
	TickErrors   *prometheus.CounterVec
	TickDuration prometheus.Histogram

	// State metrics
	TriggerActive prometheus.Gauge
	Muted         prometheus.Gauge
	Enabled       prometheus.Gauge

	// Transition metrics
	MuteTransitions *prometheus.CounterVec
	MonitorStarts   prometheus.Counter
	ErrorsDropped   prometheus.Counter
}

// New creates the metrics on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "adspot_ticks_total",
			Help: "Total number of monitor ticks",
		}),
		TickErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adspot_tick_errors_total",
				Help: "Total number of ticks that returned an error",
			},
			[]string{"kind"},
		),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "adspot_tick_duration_seconds",
			Help:    "Duration of one scan/evaluate/apply tick",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}),
		TriggerActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adspot_trigger_active",
			Help: "1 when the trigger window was present on the last tick",
		}),
		Muted: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adspot_muted",
			Help: "1 when the default endpoint was last seen muted",
		}),
		Enabled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "adspot_enabled",
			Help: "1 when monitoring is enabled in the settings",
		}),
		MuteTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adspot_mute_transitions_total",
				Help: "Total number of applied mute state changes",
			},
			[]string{"state"},
		),
		MonitorStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "adspot_monitor_starts_total",
			Help: "Total number of monitor constructions, including restarts",
		}),
		ErrorsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "adspot_errors_dropped_total",
			Help: "Tick errors not persisted because of rate limiting",
		}),
	}
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordTick records one completed tick
func (m *Metrics) RecordTick(active bool, duration time.Duration, errKind string) {
	m.Ticks.Inc()
	m.TickDuration.Observe(duration.Seconds())
	m.TriggerActive.Set(boolValue(active))
	if errKind != "" {
		m.TickErrors.WithLabelValues(errKind).Inc()
	}
}

// RecordTransition records an applied mute change
func (m *Metrics) RecordTransition(muted bool) {
	m.Muted.Set(boolValue(muted))
	state := "unmuted"
	if muted {
		state = "muted"
	}
	m.MuteTransitions.WithLabelValues(state).Inc()
}

// SetEnabled records the enabled switch
func (m *Metrics) SetEnabled(enabled bool) {
	m.Enabled.Set(boolValue(enabled))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
