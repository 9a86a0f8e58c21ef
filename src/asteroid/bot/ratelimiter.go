package bot

import (
	"sync"
	"time"
)

// RateLimiter throttles explicit star actions per user.
type RateLimiter struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	cooldown time.Duration
}

func NewRateLimiter(cooldown time.Duration) *RateLimiter {
	return &RateLimiter{
		lastUsed: make(map[string]time.Time),
		cooldown: cooldown,
	}
}

// CanUse reports whether the user is off cooldown and, if so, starts a new one.
func (r *RateLimiter) CanUse(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, exists := r.lastUsed[userID]
	if exists && time.Since(last) < r.cooldown {
		return false
	}
	r.lastUsed[userID] = time.Now()
	return true
}

// TimeUntilNext returns how long the user must wait before the next use.
func (r *RateLimiter) TimeUntilNext(userID string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	last, exists := r.lastUsed[userID]
	if !exists {
		return 0
	}
	elapsed := time.Since(last)
	if elapsed >= r.cooldown {
		return 0
	}
	return r.cooldown - elapsed
}

// Cleanup drops entries whose cooldown has long expired.
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.cooldown * 2)
	for userID, last := range r.lastUsed {
		if last.Before(cutoff) {
			delete(r.lastUsed, userID)
		}
	}
}
