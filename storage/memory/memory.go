// Package memory provides an in-memory implementation of the
// subpulse.Storage interface. This implementation is primarily intended for
// testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mihaimyh/subpulse/pkg/subpulse"
)

// Storage implements subpulse.Storage using an in-memory map.
type Storage struct {
	mu         sync.RWMutex
	aggregates map[string]*subpulse.DailyAggregate
}

// New creates a new in-memory storage adapter.
func New() *Storage {
	return &Storage{
		aggregates: make(map[string]*subpulse.DailyAggregate),
	}
}

// GetAggregate implements subpulse.Storage.
func (s *Storage) GetAggregate(ctx context.Context, date string) (*subpulse.DailyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.aggregates[date]
	if !ok {
		return nil, nil // no record yet is not an error
	}

	// Return a copy to prevent external mutations
	aggCopy := *agg
	return &aggCopy, nil
}

// PutAggregate implements subpulse.Storage.
func (s *Storage) PutAggregate(ctx context.Context, agg *subpulse.DailyAggregate) error {
	if agg == nil || agg.Date == "" {
		return fmt.Errorf("invalid aggregate")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutations
	aggCopy := *agg
	s.aggregates[agg.Date] = &aggCopy
	return nil
}

// ApplyUpdate implements subpulse.AtomicApplier under the storage lock.
func (s *Storage) ApplyUpdate(ctx context.Context, date string, upd subpulse.CounterUpdate) (*subpulse.DailyAggregate, error) {
	if date == "" {
		return nil, fmt.Errorf("invalid date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agg, ok := s.aggregates[date]
	if !ok {
		agg = subpulse.NewDailyAggregate(date)
		s.aggregates[date] = agg
	}
	agg.ApplyUpdate(upd)

	aggCopy := *agg
	return &aggCopy, nil
}
