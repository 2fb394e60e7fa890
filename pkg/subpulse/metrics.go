package subpulse

import "time"

// Metrics defines the interface for tracking event processing.
// All methods are optional - callers should pass NoopMetrics when unused.
type Metrics interface {
	// RecordEventApplied records a classified event applied to the daily
	// aggregate. kind is the wire event type, platform the normalized store.
	RecordEventApplied(kind, platform string)

	// RecordInvocation records a completed invocation.
	// trigger: "webhook" or "scheduled"; status: "success" or "error".
	RecordInvocation(trigger, status string)

	// RecordInvocationDuration records how long an invocation took.
	RecordInvocationDuration(trigger string, duration time.Duration)

	// RecordDispatchError records a failed notification dispatch.
	// reason: e.g. "send_failed".
	RecordDispatchError(reason string)
}

// NoopMetrics is a no-op implementation of the Metrics interface.
type NoopMetrics struct{}

func (n *NoopMetrics) RecordEventApplied(_, _ string)                     {}
func (n *NoopMetrics) RecordInvocation(_, _ string)                       {}
func (n *NoopMetrics) RecordInvocationDuration(_ string, _ time.Duration) {}
func (n *NoopMetrics) RecordDispatchError(_ string)                       {}
