package classify

import (
	"slices"
	"sync"
	"time"
)

type call struct {
	at         time.Time
	model      string
	durationMs int64
	failed     bool
}

// StatsSnapshot aggregates the model calls inside the rolling window.
type StatsSnapshot struct {
	Count   int            `json:"count"`
	Errors  int            `json:"errors"`
	ByModel map[string]int `json:"by_model,omitempty"`
	MinMs   int64          `json:"min_ms"`
	MaxMs   int64          `json:"max_ms"`
	AvgMs   float64        `json:"avg_ms"`
	P50Ms   float64        `json:"p50_ms"`
	P95Ms   float64        `json:"p95_ms"`
	P99Ms   float64        `json:"p99_ms"`
}

// Stats keeps model call latencies for maxAge.
type Stats struct {
	mu     sync.Mutex
	calls  []call
	maxAge time.Duration
	now    func() time.Time
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		calls:  make([]call, 0, 256),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Record adds one call. Negative durations count as zero.
func (s *Stats) Record(model string, durationMs int64, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.calls = append(s.calls, call{
		at:         now,
		model:      model,
		durationMs: max(durationMs, 0),
		failed:     failed,
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())
	if len(s.calls) == 0 {
		return StatsSnapshot{}
	}

	snap := StatsSnapshot{Count: len(s.calls), ByModel: make(map[string]int)}
	values := make([]int64, 0, len(s.calls))
	var sum int64
	for _, c := range s.calls {
		values = append(values, c.durationMs)
		sum += c.durationMs
		snap.ByModel[c.model]++
		if c.failed {
			snap.Errors++
		}
	}
	slices.Sort(values)

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.calls = slices.DeleteFunc(s.calls, func(c call) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}

	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
