package fetcher

import (
	"log"
	"sync"
	"time"
)

// CircuitBreaker halts fetching when the marketplace API starts failing,
// so a blocked or degraded upstream doesn't get hammered for fifty pages.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	consecutiveFailures int
	isOpen              bool
	lastFailureTime     time.Time

	mutex sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed request (5xx, 429, network error)
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureTime = time.Now()

	if cb.consecutiveFailures >= cb.failureThreshold {
		if !cb.isOpen {
			log.Printf("[Fetcher] Circuit breaker open: %d consecutive failures (last status %d). Pausing for %v",
				cb.consecutiveFailures, statusCode, cb.resetTimeout)
		}
		cb.isOpen = true
	}
}

// CanProceed checks if requests are allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if !cb.isOpen {
		return true
	}

	// Half-open after the reset timeout: allow one attempt through
	if time.Since(cb.lastFailureTime) > cb.resetTimeout {
		log.Printf("[Fetcher] Circuit breaker half-open after %v", cb.resetTimeout)
		cb.isOpen = false
		cb.consecutiveFailures = 0
		return true
	}

	return false
}
