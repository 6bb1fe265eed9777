package infra

import (
	"sync/atomic"
	"time"

	"chronos_client/internal/packet"
)

const numKinds = int(packet.KindUpdateStock) + 1

type kindCounters struct {
	completed    atomic.Uint64
	rejected     atomic.Uint64 // non-zero outcome code
	latencySumNs atomic.Int64
}

// Metrics aggregates transaction counters across all client goroutines.
// Uses atomic operations for thread-safety.
type Metrics struct {
	kinds [numKinds]kindCounters

	errorsTotal atomic.Uint64
	timeouts    atomic.Uint64
	retries     atomic.Uint64

	activeConnections atomic.Int32
}

// RecordTransaction records one request/response exchange.
func (m *Metrics) RecordTransaction(kind packet.Kind, outcome int32, latency time.Duration) {
	if !kind.Valid() {
		m.errorsTotal.Add(1)
		return
	}
	c := &m.kinds[kind]
	c.completed.Add(1)
	c.latencySumNs.Add(latency.Nanoseconds())
	if outcome != 0 {
		c.rejected.Add(1)
	}
}

// RecordError records a failed exchange (pack, send or receive error).
func (m *Metrics) RecordError() {
	m.errorsTotal.Add(1)
}

// RecordTimeout records a receive that gave up waiting.
func (m *Metrics) RecordTimeout() {
	m.timeouts.Add(1)
}

// RecordRetry records a reconnect attempt.
func (m *Metrics) RecordRetry() {
	m.retries.Add(1)
}

// IncrementConnections increments active connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// KindSnapshot is the per-kind part of a MetricsSnapshot.
type KindSnapshot struct {
	Completed    uint64
	Rejected     uint64
	AvgLatencyNs int64
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Kinds             [numKinds]KindSnapshot
	Transactions      uint64
	ErrorsTotal       uint64
	Timeouts          uint64
	Retries           uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Kind returns the counters of one transaction kind.
func (s MetricsSnapshot) Kind(k packet.Kind) KindSnapshot {
	if !k.Valid() {
		return KindSnapshot{}
	}
	return s.Kinds[k]
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		ErrorsTotal:       m.errorsTotal.Load(),
		Timeouts:          m.timeouts.Load(),
		Retries:           m.retries.Load(),
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}

	var latencySum int64
	for i := range m.kinds {
		c := &m.kinds[i]
		n := c.completed.Load()
		sum := c.latencySumNs.Load()
		ks := KindSnapshot{Completed: n, Rejected: c.rejected.Load()}
		if n > 0 {
			ks.AvgLatencyNs = sum / int64(n)
		}
		snap.Kinds[i] = ks
		snap.Transactions += n
		latencySum += sum
	}
	if snap.Transactions > 0 {
		snap.AvgLatencyNs = latencySum / int64(snap.Transactions)
	}
	return snap
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	for i := range m.kinds {
		m.kinds[i].completed.Store(0)
		m.kinds[i].rejected.Store(0)
		m.kinds[i].latencySumNs.Store(0)
	}
	m.errorsTotal.Store(0)
	m.timeouts.Store(0)
	m.retries.Store(0)
	m.activeConnections.Store(0)
}
