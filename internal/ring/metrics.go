package ring

import (
	"sync/atomic"
	"time"
)

// Metrics captures runtime routing statistics for a single node, exposed
// for diagnostics through Instance.Metrics. All fields are
// updated with atomic operations so they can be read concurrently with
// an in-flight lookup.
type Metrics struct {
	LookupCount        uint64
	LookupHopCount     uint64 // sum of hops across all lookups; LookupHopCount/LookupCount gives the average (see Snapshot)
	LookupFailureCount uint64
	StabilizeFailures  uint64
	FixFingerFailures  uint64
	NotifyReceived     uint64
	lookupNanos        uint64 // sum of lookup latency in nanoseconds
}

func (m *Metrics) recordLookup(hops int, dur time.Duration, err error) {
	atomic.AddUint64(&m.LookupCount, 1)
	atomic.AddUint64(&m.LookupHopCount, uint64(hops))
	atomic.AddUint64(&m.lookupNanos, uint64(dur.Nanoseconds()))
	if err != nil {
		atomic.AddUint64(&m.LookupFailureCount, 1)
	}
}

// Snapshot is a point-in-time, race-free copy of Metrics suitable for
// JSON encoding or logging.
type Snapshot struct {
	LookupCount        uint64  `json:"lookup_count"`
	AvgLookupHops      float64 `json:"avg_lookup_hops"`
	AvgLookupLatencyMs float64 `json:"avg_lookup_latency_ms"`
	LookupFailureCount uint64  `json:"lookup_failures"`
	StabilizeFailures  uint64  `json:"stabilize_failures"`
	FixFingerFailures  uint64  `json:"fix_finger_failures"`
	NotifyReceived     uint64  `json:"notify_received"`
}

// Snapshot reads every counter atomically and computes the derived
// averages.
func (m *Metrics) Snapshot() Snapshot {
	count := atomic.LoadUint64(&m.LookupCount)
	s := Snapshot{
		LookupCount:        count,
		LookupFailureCount: atomic.LoadUint64(&m.LookupFailureCount),
		StabilizeFailures:  atomic.LoadUint64(&m.StabilizeFailures),
		FixFingerFailures:  atomic.LoadUint64(&m.FixFingerFailures),
		NotifyReceived:     atomic.LoadUint64(&m.NotifyReceived),
	}
	if count > 0 {
		s.AvgLookupHops = float64(atomic.LoadUint64(&m.LookupHopCount)) / float64(count)
		s.AvgLookupLatencyMs = float64(atomic.LoadUint64(&m.lookupNanos)) / float64(count) / 1e6
	}
	return s
}
