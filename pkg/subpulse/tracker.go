package subpulse

import (
	"context"
	"fmt"
)

// Config holds optional Tracker collaborators.
type Config struct {
	// Logger receives structured logs. If nil, logging is disabled.
	Logger Logger

	// Metrics receives counters for applied events. If nil, metrics are
	// silently ignored.
	Metrics Metrics

	// Clock resolves the current reporting date. If nil, the system clock
	// is used.
	Clock Clock
}

// Tracker accumulates classified billing events into per-date aggregates.
// Each date key is created lazily on first access; there is no explicit
// rollover step, a new Jakarta-local date simply starts a fresh record.
type Tracker struct {
	storage Storage
	logger  Logger
	metrics Metrics
	clock   Clock
}

// NewTracker creates a Tracker on top of storage. config may be nil.
func NewTracker(storage Storage, config *Config) (*Tracker, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage is required")
	}

	t := &Tracker{
		storage: storage,
		logger:  &NoopLogger{},
		metrics: &NoopMetrics{},
		clock:   SystemClock(),
	}
	if config != nil {
		if config.Logger != nil {
			t.logger = config.Logger
		}
		if config.Metrics != nil {
			t.metrics = config.Metrics
		}
		if config.Clock != nil {
			t.clock = config.Clock
		}
	}
	return t, nil
}

// CurrentDate returns today's date key in the Jakarta timezone.
func (t *Tracker) CurrentDate() string {
	return JakartaDate(t.clock.Now())
}

// Get returns the stored aggregate for date, or a fresh all-zero record when
// none exists. The fresh record is NOT persisted; it materializes in storage
// on the first Apply for that date.
func (t *Tracker) Get(ctx context.Context, date string) (*DailyAggregate, error) {
	agg, err := t.storage.GetAggregate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate: %w", err)
	}
	if agg == nil {
		t.logger.Info("no aggregate for date, starting fresh", Field{Key: "date", Value: date})
		return NewDailyAggregate(date), nil
	}
	return agg, nil
}

// Apply reads the record for date (creating a default if absent), applies
// exactly one counter mutation, persists the result and returns it.
// KindUnrecognized is a no-op write-through: the record persists unchanged so
// the date stays materialized. Updates for a platform without a bucket
// (PlatformUnknown) are also write-throughs.
func (t *Tracker) Apply(ctx context.Context, date string, upd CounterUpdate) (*DailyAggregate, error) {
	if upd.Kind != KindUnrecognized && upd.Platform == PlatformUnknown {
		t.logger.Warn("event platform has no counter bucket",
			Field{Key: "date", Value: date},
			Field{Key: "kind", Value: upd.Kind.String()})
	}

	agg, err := t.apply(ctx, date, upd)
	if err != nil {
		return nil, err
	}

	t.metrics.RecordEventApplied(upd.Kind.String(), string(upd.Platform))
	t.logger.Info("aggregate updated",
		Field{Key: "date", Value: date},
		Field{Key: "kind", Value: upd.Kind.String()},
		Field{Key: "platform", Value: string(upd.Platform)})
	return agg, nil
}

func (t *Tracker) apply(ctx context.Context, date string, upd CounterUpdate) (*DailyAggregate, error) {
	if applier, ok := t.storage.(AtomicApplier); ok {
		agg, err := applier.ApplyUpdate(ctx, date, upd)
		if err != nil {
			return nil, fmt.Errorf("failed to apply update: %w", err)
		}
		return agg, nil
	}

	// Read-modify-write fallback; last write wins under concurrent bursts,
	// which is acceptable for this volume.
	agg, err := t.Get(ctx, date)
	if err != nil {
		return nil, err
	}
	agg.ApplyUpdate(upd)
	if err := t.storage.PutAggregate(ctx, agg); err != nil {
		return nil, fmt.Errorf("failed to persist aggregate: %w", err)
	}
	return agg, nil
}

// Render returns the formatted daily report for date. It never mutates the
// record; a never-applied date renders as all zeros.
func (t *Tracker) Render(ctx context.Context, date string) (string, error) {
	agg, err := t.Get(ctx, date)
	if err != nil {
		return "", err
	}
	return RenderReport(agg, t.clock.Now()), nil
}
