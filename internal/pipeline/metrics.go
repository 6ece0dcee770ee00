package pipeline

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/certs"
)

// Metrics collects pass metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	passesTotal  *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	unitsTotal   *prometheus.CounterVec
	certsTotal   *prometheus.CounterVec
	unitAttempts *prometheus.HistogramVec
}

// NewMetrics creates and registers the pass metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		passesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estopo",
				Subsystem: "pass",
				Name:      "total",
				Help:      "Total number of reconciliation passes by result",
			},
			[]string{"cluster", "result"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "estopo",
				Subsystem: "pass",
				Name:      "duration_seconds",
				Help:      "Duration of the apply phase of a pass in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
			},
			[]string{"cluster"},
		),
		unitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estopo",
				Subsystem: "apply",
				Name:      "units_total",
				Help:      "Total number of units by action and outcome",
			},
			[]string{"cluster", "action", "outcome"},
		),
		unitAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "estopo",
				Subsystem: "apply",
				Name:      "unit_attempts",
				Help:      "Platform calls needed per applied unit",
				Buckets:   prometheus.LinearBuckets(1, 1, 6),
			},
			[]string{"cluster"},
		),
		certsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "estopo",
				Subsystem: "certs",
				Name:      "generated_total",
				Help:      "Total number of certificate generations by reason",
			},
			[]string{"identity", "reason"},
		),
	}

	m.Registry.MustRegister(
		m.passesTotal,
		m.passDuration,
		m.unitsTotal,
		m.unitAttempts,
		m.certsTotal,
	)
	return m
}

// CertificateGenerated matches the certs.WithGenerateHook signature.
func (m *Metrics) CertificateGenerated(identity string, reason certs.GenerateReason) {
	m.certsTotal.WithLabelValues(identity, string(reason)).Inc()
}

// ObserveReport records the outcome of an applied pass.
func (m *Metrics) ObserveReport(cluster string, report *apply.Report) {
	m.passDuration.WithLabelValues(cluster).Observe(report.Duration().Seconds())
	for _, u := range report.Units {
		m.unitsTotal.WithLabelValues(cluster, string(u.Action), string(u.Outcome)).Inc()
		if u.Attempts > 0 {
			m.unitAttempts.WithLabelValues(cluster).Observe(float64(u.Attempts))
		}
	}
	m.ObservePass(cluster, passResult(report))
}

// ObservePass counts a pass with the given result.
func (m *Metrics) ObservePass(cluster, result string) {
	m.passesTotal.WithLabelValues(cluster, result).Inc()
}

// Push sends the registry to a Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}

// Pass results used as metric label values.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultTimeout   = "timeout"
	ResultAborted   = "aborted"
)

func passResult(report *apply.Report) string {
	switch {
	case report.Timeout != nil:
		return ResultTimeout
	case report.Err() != nil:
		return ResultFailed
	default:
		return ResultSucceeded
	}
}
