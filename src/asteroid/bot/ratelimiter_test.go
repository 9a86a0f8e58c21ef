package bot

import (
	"testing"
	"time"
)

func TestRateLimiterCooldown(t *testing.T) {
	rl := NewRateLimiter(50 * time.Millisecond)

	if !rl.CanUse("u1") {
		t.Fatal("first use blocked")
	}
	if rl.CanUse("u1") {
		t.Fatal("second use allowed inside cooldown")
	}
	if rl.TimeUntilNext("u1") <= 0 {
		t.Fatal("no wait reported inside cooldown")
	}
	if !rl.CanUse("u2") {
		t.Fatal("cooldown leaked across users")
	}

	time.Sleep(60 * time.Millisecond)
	if !rl.CanUse("u1") {
		t.Fatal("use blocked after cooldown expired")
	}
}

func TestRateLimiterTimeUntilNextUnknownUser(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	if rl.TimeUntilNext("nobody") != 0 {
		t.Fatal("unknown user has a wait")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10 * time.Millisecond)
	rl.CanUse("u1")
	time.Sleep(30 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.lastUsed) != 0 {
		t.Fatalf("entries = %d after cleanup", len(rl.lastUsed))
	}
}
