package ratelimit

import (
	"sync"
	"time"
)

// window is one sliding time window with its request cap. A limit of
// zero means the window is unbounded.
type window struct {
	span  time.Duration
	limit int
	hits  []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.hits[:0]
	for _, t := range w.hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.hits = kept
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

// RateLimiter paces outbound marketplace API requests with per-minute,
// per-hour and per-day sliding windows. The fetcher blocks on it
// between listing pages.
type RateLimiter struct {
	enabled bool
	minute  window
	hour    window
	day     window
	mu      sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		minute:  window{span: time.Minute, limit: requestsPerMinute},
		hour:    window{span: time.Hour, limit: requestsPerHour},
		day:     window{span: 24 * time.Hour, limit: requestsPerDay},
	}
}

// AllowRequest checks if a request is allowed and records it if so.
// Returns false when any window is at its cap.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for _, w := range rl.windows() {
		w.prune(now)
	}
	for _, w := range rl.windows() {
		if w.full() {
			return false
		}
	}
	for _, w := range rl.windows() {
		w.hits = append(w.hits, now)
	}
	return true
}

func (rl *RateLimiter) windows() [3]*window {
	return [3]*window{&rl.minute, &rl.hour, &rl.day}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for _, w := range rl.windows() {
		w.prune(now)
	}

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(rl.minute.hits),
		RequestsLastHour:    len(rl.hour.hits),
		RequestsLastDay:     len(rl.day.hits),
		LimitPerMinute:      rl.minute.limit,
		LimitPerHour:        rl.hour.limit,
		LimitPerDay:         rl.day.limit,
		RemainingThisMinute: max(0, rl.minute.limit-len(rl.minute.hits)),
		RemainingThisHour:   max(0, rl.hour.limit-len(rl.hour.hits)),
		RemainingThisDay:    max(0, rl.day.limit-len(rl.day.hits)),
	}
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for _, w := range rl.windows() {
		w.hits = nil
	}
}
