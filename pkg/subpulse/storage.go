package subpulse

import "context"

// Storage defines the interface for daily aggregate persistence.
// All methods use concrete types from this package to avoid import cycles.
type Storage interface {
	// GetAggregate returns the aggregate stored for date, or (nil, nil)
	// when no record exists yet. A storage failure must be returned as an
	// error, never as a default record.
	GetAggregate(ctx context.Context, date string) (*DailyAggregate, error)

	// PutAggregate persists the full aggregate record, replacing any
	// existing record for the same date.
	PutAggregate(ctx context.Context, agg *DailyAggregate) error
}

// AtomicApplier is an optional interface storage adapters can implement to
// apply a counter update atomically instead of through the tracker's
// read-modify-write. The tracker prefers it when available, which removes
// the lost-update window under concurrent invocations for the same date.
type AtomicApplier interface {
	// ApplyUpdate applies exactly one counter mutation for date (creating
	// the record if absent) and returns the updated aggregate.
	ApplyUpdate(ctx context.Context, date string, upd CounterUpdate) (*DailyAggregate, error)
}
