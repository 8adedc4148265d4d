// Package metrics exposes decision counters and latencies in Prometheus format.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/treedecide/internal/errs"
)

const namespace = "treedecide"

// Outcome labels.
const (
	OutcomeDecided    = "decided"
	OutcomeAggregated = "aggregated"
	OutcomeInvalid    = "invalid"
	OutcomeNull       = "null"
	OutcomeBadTree    = "bad_tree"
	OutcomeError      = "error"
)

// #region metrics
// Metrics holds the collectors of one registry.
type Metrics struct {
	Registry *prometheus.Registry

	decisions  *prometheus.CounterVec
	duration   prometheus.Histogram
	reductions *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Decisions taken, by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Time to parse, validate and walk the trees of one decision",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		reductions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reductions_total",
			Help:      "Rule reductions, by result",
		}, []string{"result"}),
	}
}

// ObserveDecision records one decision. aggregated is ignored when err is non-nil.
func (m *Metrics) ObserveDecision(elapsed time.Duration, aggregated bool, err error) {
	m.duration.Observe(elapsed.Seconds())
	m.decisions.WithLabelValues(Outcome(aggregated, err)).Inc()
}

// ObserveReduction records one rule reduction.
func (m *Metrics) ObserveReduction(err error) {
	result := "ok"
	if err != nil {
		result = "conflict"
	}
	m.reductions.WithLabelValues(result).Inc()
}

// Outcome maps a decision result to its label.
func Outcome(aggregated bool, err error) string {
	switch {
	case err == nil && aggregated:
		return OutcomeAggregated
	case err == nil:
		return OutcomeDecided
	case errors.Is(err, errs.ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, errs.ErrNullDecision):
		return OutcomeNull
	case errors.Is(err, errs.ErrFormat):
		return OutcomeBadTree
	default:
		return OutcomeError
	}
}

// WriteTextfile writes every collected metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// #endregion metrics
