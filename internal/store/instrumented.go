package store

import (
	"sync/atomic"
	"time"

	"github.com/heysubinoy/keybase/pkg/kv"
)

// Metrics holds timing statistics for store operations.
// Uses atomic operations for thread-safe updates without locks.
type Metrics struct {
	GetCount    atomic.Uint64
	SetCount    atomic.Uint64
	RemoveCount atomic.Uint64
	SaveCount   atomic.Uint64
	ErrorCount  atomic.Uint64

	// Cumulative latencies in nanoseconds
	GetLatencyNs    atomic.Uint64
	SetLatencyNs    atomic.Uint64
	RemoveLatencyNs atomic.Uint64
	SaveLatencyNs   atomic.Uint64
}

// InstrumentedStore wraps any kv.Store implementation with timing metrics.
// Exists and Keys count as gets; Close and IsClosed are not measured.
type InstrumentedStore struct {
	store   kv.Store
	metrics *Metrics
}

// Compile-time check to ensure InstrumentedStore implements kv.Store.
var _ kv.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps a store with instrumentation.
func NewInstrumentedStore(store kv.Store) *InstrumentedStore {
	return &InstrumentedStore{
		store:   store,
		metrics: &Metrics{},
	}
}

// Get delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Get(key string) (any, bool, error) {
	start := time.Now()
	value, found, err := s.store.Get(key)
	s.record(&s.metrics.GetCount, &s.metrics.GetLatencyNs, start, err)
	return value, found, err
}

// Set delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Set(key string, value any) error {
	start := time.Now()
	err := s.store.Set(key, value)
	s.record(&s.metrics.SetCount, &s.metrics.SetLatencyNs, start, err)
	return err
}

// Remove delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Remove(key string) error {
	start := time.Now()
	err := s.store.Remove(key)
	s.record(&s.metrics.RemoveCount, &s.metrics.RemoveLatencyNs, start, err)
	return err
}

// Exists delegates to the wrapped store and records timing as a get.
func (s *InstrumentedStore) Exists(key string) (bool, error) {
	start := time.Now()
	ok, err := s.store.Exists(key)
	s.record(&s.metrics.GetCount, &s.metrics.GetLatencyNs, start, err)
	return ok, err
}

// Keys delegates to the wrapped store and records timing as a get.
func (s *InstrumentedStore) Keys() ([]string, error) {
	start := time.Now()
	keys, err := s.store.Keys()
	s.record(&s.metrics.GetCount, &s.metrics.GetLatencyNs, start, err)
	return keys, err
}

// Save delegates to the wrapped store and records timing.
func (s *InstrumentedStore) Save() error {
	start := time.Now()
	err := s.store.Save()
	s.record(&s.metrics.SaveCount, &s.metrics.SaveLatencyNs, start, err)
	return err
}

// Close delegates to the wrapped store.
func (s *InstrumentedStore) Close() error {
	return s.store.Close()
}

// IsClosed delegates to the wrapped store.
func (s *InstrumentedStore) IsClosed() bool {
	return s.store.IsClosed()
}

func (s *InstrumentedStore) record(count, latency *atomic.Uint64, start time.Time, err error) {
	count.Add(1)
	latency.Add(uint64(time.Since(start).Nanoseconds()))
	if err != nil {
		s.metrics.ErrorCount.Add(1)
	}
}

// GetMetrics returns a snapshot of current metrics.
func (s *InstrumentedStore) GetMetrics() MetricsSnapshot {
	getCount := s.metrics.GetCount.Load()
	setCount := s.metrics.SetCount.Load()
	removeCount := s.metrics.RemoveCount.Load()
	saveCount := s.metrics.SaveCount.Load()

	return MetricsSnapshot{
		GetCount:         getCount,
		SetCount:         setCount,
		RemoveCount:      removeCount,
		SaveCount:        saveCount,
		ErrorCount:       s.metrics.ErrorCount.Load(),
		GetAvgLatency:    s.avgLatency(s.metrics.GetLatencyNs.Load(), getCount),
		SetAvgLatency:    s.avgLatency(s.metrics.SetLatencyNs.Load(), setCount),
		RemoveAvgLatency: s.avgLatency(s.metrics.RemoveLatencyNs.Load(), removeCount),
		SaveAvgLatency:   s.avgLatency(s.metrics.SaveLatencyNs.Load(), saveCount),
	}
}

// ResetMetrics clears all metrics counters.
func (s *InstrumentedStore) ResetMetrics() {
	for _, c := range []*atomic.Uint64{
		&s.metrics.GetCount, &s.metrics.SetCount, &s.metrics.RemoveCount, &s.metrics.SaveCount,
		&s.metrics.ErrorCount,
		&s.metrics.GetLatencyNs, &s.metrics.SetLatencyNs, &s.metrics.RemoveLatencyNs, &s.metrics.SaveLatencyNs,
	} {
		c.Store(0)
	}
}

func (s *InstrumentedStore) avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	GetCount         uint64
	SetCount         uint64
	RemoveCount      uint64
	SaveCount        uint64
	ErrorCount       uint64
	GetAvgLatency    time.Duration
	SetAvgLatency    time.Duration
	RemoveAvgLatency time.Duration
	SaveAvgLatency   time.Duration
}
