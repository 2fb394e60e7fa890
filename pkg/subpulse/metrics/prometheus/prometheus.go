package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

var _ subpulse.Metrics = (*Metrics)(nil)

// Metrics implements subpulse.Metrics using Prometheus.
type Metrics struct {
	eventsAppliedTotal  *prometheus.CounterVec
	invocationsTotal    *prometheus.CounterVec
	invocationDuration  *prometheus.HistogramVec
	dispatchErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Prometheus metrics implementation and registers
// the collectors with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		eventsAppliedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "applied_total",
			Help:      "Total number of billing events applied to the daily aggregate.",
		}, []string{"kind", "platform"}),

		invocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "total",
			Help:      "Total number of invocations handled.",
		}, []string{"trigger", "status"}),

		invocationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "invocations",
			Name:      "duration_seconds",
			Help:      "Duration of invocation handling in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"trigger"}),

		dispatchErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "errors_total",
			Help:      "Total number of failed notification dispatches.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) RecordEventApplied(kind, platform string) {
	m.eventsAppliedTotal.WithLabelValues(kind, platform).Inc()
}

func (m *Metrics) RecordInvocation(trigger, status string) {
	m.invocationsTotal.WithLabelValues(trigger, status).Inc()
}

func (m *Metrics) RecordInvocationDuration(trigger string, duration time.Duration) {
	m.invocationDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

func (m *Metrics) RecordDispatchError(reason string) {
	m.dispatchErrorsTotal.WithLabelValues(reason).Inc()
}
