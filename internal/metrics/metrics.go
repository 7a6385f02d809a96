// Package metrics records turn and bootstrap outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeBootstrap     = "bootstrap_required"
	OutcomeUnknownIntent = "unknown_intent"
	OutcomeInvalidParams = "invalid_params"
	OutcomeError         = "error"
)

// Bootstrap results.
const (
	BootstrapPrompted  = "prompted"
	BootstrapCommitted = "committed"
	BootstrapFailed    = "failed"
)

// Recorder is what the router and bootstrap flow report to.
type Recorder interface {
	RecordTurn(intent, outcome string, d time.Duration)
	RecordBootstrap(result string)
}

// Collector is the Prometheus Recorder.
type Collector struct {
	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	bootstrap    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoebot_turns_total",
			Help: "Conversational turns handled, by intent and outcome.",
		}, []string{"intent", "outcome"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zoebot_turn_duration_seconds",
			Help:    "Time spent handling a turn, including vendor API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"intent"}),
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zoebot_bootstrap_total",
			Help: "Bootstrap flow transitions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(c.turns, c.turnDuration, c.bootstrap)
	return c
}

// RecordTurn counts a finished turn and observes its duration.
func (c *Collector) RecordTurn(intent, outcome string, d time.Duration) {
	c.turns.WithLabelValues(intent, outcome).Inc()
	c.turnDuration.WithLabelValues(intent).Observe(d.Seconds())
}

// RecordBootstrap counts a bootstrap transition.
func (c *Collector) RecordBootstrap(result string) {
	c.bootstrap.WithLabelValues(result).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTurn(string, string, time.Duration) {}
func (Nop) RecordBootstrap(string)                   {}

// Handler serves the Prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
