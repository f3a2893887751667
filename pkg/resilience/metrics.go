package resilience

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomeFailure   = "failure"
	OutcomeExhausted = "exhausted"
	OutcomeCanceled  = "canceled"
)

// Metrics holds the collectors of one Layer. A nil *Metrics records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	delays   *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finops_sentinel",
			Subsystem: "resilience",
			Name:      "attempts_total",
			Help:      "Outbound call attempts, partitioned by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	delays := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finops_sentinel",
			Subsystem: "resilience",
			Name:      "backoff_seconds",
			Help:      "Delay applied before a retry, partitioned by failure class.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		},
		[]string{"class"},
	)

	m := &Metrics{attempts: attempts, delays: delays}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.attempts, err = register(reg, attempts); err != nil {
		return nil, err
	}
	if m.delays, err = register(reg, delays); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) observeDelay(class FailureClass, d time.Duration) {
	if m == nil {
		return
	}
	m.delays.WithLabelValues(string(class)).Observe(d.Seconds())
}
