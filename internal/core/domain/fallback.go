package domain

import "sync"

// FallbackStats counts fallback activity for one or more pipeline runs.
// The orchestrator takes an instance from the caller instead of mutating
// process-wide state, so independent pipelines can keep independent
// counters. A single instance is safe to share; updates are serialized.
type FallbackStats struct {
	mu           sync.Mutex
	totalPages   int64
	fallbackUsed int64
	byReason     map[string]int64
}

func NewFallbackStats() *FallbackStats {
	return &FallbackStats{byReason: make(map[string]int64)}
}

func (s *FallbackStats) PageSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalPages++
}

func (s *FallbackStats) FallbackApplied(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbackUsed++
	if s.byReason == nil {
		s.byReason = make(map[string]int64)
	}
	s.byReason[reason]++
}

// FallbackUsage is a point-in-time copy of the counters.
type FallbackUsage struct {
	TotalPages   int64            `json:"total_pages"`
	FallbackUsed int64            `json:"fallback_used"`
	ByReason     map[string]int64 `json:"by_reason"`
	Percentage   float64          `json:"fallback_percentage"`
}

func (s *FallbackStats) Snapshot() FallbackUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage := FallbackUsage{
		TotalPages:   s.totalPages,
		FallbackUsed: s.fallbackUsed,
		ByReason:     make(map[string]int64, len(s.byReason)),
	}
	for reason, n := range s.byReason {
		usage.ByReason[reason] = n
	}
	if s.totalPages > 0 {
		usage.Percentage = float64(s.fallbackUsed) / float64(s.totalPages) * 100
	}
	return usage
}
