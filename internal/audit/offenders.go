package audit

import (
	"sync"
	"time"
)

// offenderTracker keeps a sliding window of denial timestamps per
// principal. Crossing the threshold within the window marks the
// principal a repeat offender; subsequent denial records carry the flag
// so the surrounding alerting system can pick up probing behavior.
type offenderTracker struct {
	mu        sync.Mutex
	window    time.Duration
	threshold int
	denials   map[string][]time.Time
	lastSweep time.Time
}

func newOffenderTracker(window time.Duration, threshold int) *offenderTracker {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if threshold <= 0 {
		threshold = 5
	}
	return &offenderTracker{
		window:    window,
		threshold: threshold,
		denials:   make(map[string][]time.Time),
	}
}

// recordAndCheck registers one denial and reports whether the principal
// has now met the threshold within the window.
func (t *offenderTracker) recordAndCheck(principalID string, now time.Time) bool {
	if principalID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.window)
	if now.Sub(t.lastSweep) >= t.window {
		t.sweep(cutoff)
		t.lastSweep = now
	}

	kept := t.denials[principalID][:0]
	for _, ts := range t.denials[principalID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	t.denials[principalID] = kept

	return len(kept) >= t.threshold
}

// sweep evicts principals whose denials have all aged out of the
// window, so the map only holds recently active offenders. Caller
// holds the lock.
func (t *offenderTracker) sweep(cutoff time.Time) {
	for id, stamps := range t.denials {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(t.denials, id)
		}
	}
}
