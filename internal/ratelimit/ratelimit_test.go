package ratelimit

import "testing"

func TestAllowRequestEnforcesMinuteCap(t *testing.T) {
	rl := NewRateLimiter(3, 0, 0, true)

	for i := 0; i < 3; i++ {
		if !rl.AllowRequest() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.AllowRequest() {
		t.Fatal("fourth request within the minute should be blocked")
	}

	rl.Reset()
	if !rl.AllowRequest() {
		t.Fatal("request after reset should be allowed")
	}
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 10; i++ {
		if !rl.AllowRequest() {
			t.Fatalf("disabled limiter blocked request %d", i+1)
		}
	}
}

func TestBlockedRequestIsNotRecorded(t *testing.T) {
	rl := NewRateLimiter(2, 0, 0, true)
	rl.AllowRequest()
	rl.AllowRequest()
	rl.AllowRequest() // blocked

	stats := rl.GetStats()
	if stats.RequestsLastMinute != 2 {
		t.Errorf("expected 2 recorded requests, got %d", stats.RequestsLastMinute)
	}
	if stats.RemainingThisMinute != 0 {
		t.Errorf("expected 0 remaining, got %d", stats.RemainingThisMinute)
	}
}

func TestHourCapAppliesIndependently(t *testing.T) {
	rl := NewRateLimiter(100, 2, 0, true)
	rl.AllowRequest()
	rl.AllowRequest()
	if rl.AllowRequest() {
		t.Fatal("third request should hit the hourly cap")
	}
}

func TestZeroLimitMeansUnbounded(t *testing.T) {
	rl := NewRateLimiter(0, 0, 0, true)
	for i := 0; i < 50; i++ {
		if !rl.AllowRequest() {
			t.Fatalf("unbounded limiter blocked request %d", i+1)
		}
	}
}
