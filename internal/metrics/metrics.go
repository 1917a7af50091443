// Package metrics exports attack progress to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/hnp"
)

const namespace = "hnp"

// Collector implements hnp.Observer with Prometheus metrics.
type Collector struct {
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	rounds      *prometheus.HistogramVec
	guesses     prometheus.Counter
	active      prometheus.Gauge
}

var _ hnp.Observer = (*Collector)(nil)

// New creates the collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Attempt state transitions by target state.",
		}, []string{"state"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Finished attempts by terminal state.",
		}, []string{"state"}),
		rounds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reduction_seconds",
			Help:      "Duration of lattice reduction rounds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"method", "beta"}),
		guesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Distinct private key candidates tested.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_attempts",
			Help:      "Attempts currently running.",
		}),
	}
	for _, m := range []prometheus.Collector{c.transitions, c.outcomes, c.rounds, c.guesses, c.active} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Transition implements hnp.Observer.
func (c *Collector) Transition(_ string, from, to hnp.State) {
	if from == hnp.StateIdle {
		c.active.Inc()
	}
	c.transitions.WithLabelValues(to.String()).Inc()
	if to.Terminal() {
		c.active.Dec()
		c.outcomes.WithLabelValues(to.String()).Inc()
	}
}

// Round implements hnp.Observer.
func (c *Collector) Round(_ string, method hnp.Method, beta int, elapsed time.Duration) {
	c.rounds.WithLabelValues(string(method), strconv.Itoa(beta)).Observe(elapsed.Seconds())
}

// Guess implements hnp.Observer.
func (c *Collector) Guess(string) {
	c.guesses.Inc()
}
