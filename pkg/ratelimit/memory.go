package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter enforces the budget with a sliding window of hit timestamps
// per client, held in process memory. State is per-instance and lost on
// restart.
type MemoryLimiter struct {
	config *Config

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryLimiter creates an in-memory sliding-window limiter.
func NewMemoryLimiter(config *Config) *MemoryLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &MemoryLimiter{
		config: config,
		hits:   make(map[string][]time.Time),
	}
}

// Check reports whether clientID has exceeded the budget. A rejected
// request does not occupy a window slot, so a client that keeps retrying
// recovers as soon as its oldest accepted hit leaves the window.
func (l *MemoryLimiter) Check(_ context.Context, clientID string) bool {
	return l.check(time.Now(), clientID)
}

func (l *MemoryLimiter) check(now time.Time, clientID string) bool {
	cutoff := now.Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Drop hits that have aged out of the window.
	hits := l.hits[clientID]
	stale := 0
	for stale < len(hits) && !hits[stale].After(cutoff) {
		stale++
	}
	hits = hits[stale:]

	if len(hits) >= l.config.Limit {
		l.hits[clientID] = hits
		return true
	}

	l.hits[clientID] = append(hits, now)
	return false
}

// Cleanup removes clients whose every hit has aged out of the window.
// Should be called periodically.
func (l *MemoryLimiter) Cleanup() {
	cutoff := time.Now().Add(-l.config.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for clientID, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, clientID)
		}
	}
}

// StartCleanup starts a background goroutine that drops idle clients until
// ctx is cancelled.
func (l *MemoryLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(l.config.Window)
	go func() {
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}
