package services

import "testing"

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(60, 5)

	for i := 0; i < 5; i++ {
		if !rl.Allow("acme:alice") {
			t.Fatalf("request %d rejected within burst", i+1)
		}
	}
	if rl.Allow("acme:alice") {
		t.Error("request beyond burst was allowed")
	}
}

func TestRateLimiterIsolatesKeys(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	rl.Allow("acme:alice")
	rl.Allow("acme:alice")
	if rl.Allow("acme:alice") {
		t.Fatal("third request for exhausted key was allowed")
	}

	// A different user in the same tenant has its own bucket.
	if !rl.Allow("acme:bob") {
		t.Error("fresh key was rejected")
	}
	// So does the same user in a different tenant.
	if !rl.Allow("globex:alice") {
		t.Error("fresh tenant was rejected")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if !rl.Allow("any:key") {
		t.Error("limiter with defaulted config rejected the first request")
	}
}
