package app

import (
	"testing"
	"time"
)

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store := &rateLimiterStore{
		limiters: make(map[string]*clientLimiter),
		perMin:   60,
		now:      func() time.Time { return clock },
	}

	store.getLimiter("10.0.0.1")
	store.getLimiter("10.0.0.2")

	// 10.0.0.2 keeps calling; 10.0.0.1 goes quiet.
	clock = clock.Add(limiterIdleTTL / 2)
	store.getLimiter("10.0.0.2")

	clock = clock.Add(limiterIdleTTL/2 + time.Minute)
	store.getLimiter("10.0.0.3")

	if _, ok := store.limiters["10.0.0.1"]; ok {
		t.Error("idle client survived the sweep")
	}
	if _, ok := store.limiters["10.0.0.2"]; !ok {
		t.Error("active client was evicted")
	}
	if len(store.limiters) != 2 {
		t.Errorf("limiter map holds %d entries, want 2", len(store.limiters))
	}
}

func TestRateLimiterKeepsIdentityPerClient(t *testing.T) {
	clock := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store := &rateLimiterStore{
		limiters: make(map[string]*clientLimiter),
		perMin:   60,
		now:      func() time.Time { return clock },
	}

	first := store.getLimiter("10.0.0.1")
	clock = clock.Add(time.Minute)
	if store.getLimiter("10.0.0.1") != first {
		t.Error("active client got a fresh limiter")
	}
	if store.getLimiter("10.0.0.2") == first {
		t.Error("distinct clients share a limiter")
	}
}
