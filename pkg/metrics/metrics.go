package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all dispatch pipeline metrics
type Metrics struct {
	RunsTotal           prometheus.Counter
	RunDuration         prometheus.Histogram
	EligibleUsers       prometheus.Histogram
	DispatchOutcomes    *prometheus.CounterVec
	Deliveries          *prometheus.CounterVec
	PrunedSubscriptions prometheus.Counter
}

// New creates the pipeline metrics without registering them, so tests can build
// throwaway instances. Call Register before serving /metrics.
func New(namespace string) *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of notification runs triggered",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent executing a full notification run",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		EligibleUsers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eligible_users",
			Help:      "Number of users discovered as due per run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		DispatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Per-user dispatch outcomes",
		}, []string{"status"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Per-subscription delivery attempts by result class",
		}, []string{"result"}),
		PrunedSubscriptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pruned_subscriptions_total",
			Help:      "Subscriptions deleted after a permanent delivery failure",
		}),
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(r prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RunsTotal,
		m.RunDuration,
		m.EligibleUsers,
		m.DispatchOutcomes,
		m.Deliveries,
		m.PrunedSubscriptions,
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
