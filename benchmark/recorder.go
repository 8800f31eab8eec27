package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OpObserver receives every operation outcome as the executor collects it
type OpObserver interface {
	ObserveOp(out Outcome)
}

// PromRecorder exports operation counters and latencies as Prometheus metrics
type PromRecorder struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPromRecorder creates the collectors and registers them with reg
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	r := &PromRecorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docbench",
			Name:      "operations_total",
			Help:      "Operations executed, by database, scenario, kind and result.",
		}, []string{"database", "scenario", "kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docbench",
			Name:      "operation_duration_seconds",
			Help:      "Latency of completed operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20),
		}, []string{"database", "scenario", "kind"}),
	}
	for _, c := range []prometheus.Collector{r.ops, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// For returns an observer bound to one database and scenario
func (r *PromRecorder) For(database DatabaseType, scenario string) OpObserver {
	labels := prometheus.Labels{"database": string(database), "scenario": scenario}
	return &boundRecorder{
		ops:      r.ops.MustCurryWith(labels),
		duration: r.duration.MustCurryWith(labels),
	}
}

type boundRecorder struct {
	ops      *prometheus.CounterVec
	duration prometheus.ObserverVec
}

func (b *boundRecorder) ObserveOp(out Outcome) {
	result := "success"
	switch {
	case out.Skipped:
		result = "skipped"
	case out.TimedOut:
		result = "timeout"
	case !out.Success:
		result = "error"
	}
	kind := out.Kind.String()
	b.ops.WithLabelValues(kind, result).Inc()
	if !out.TimedOut && !out.Skipped {
		b.duration.WithLabelValues(kind).Observe(out.Latency.Seconds())
	}
}
