package router

import (
	"sync"
	"sync/atomic"
	"time"
)

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Failing, rejecting requests
	CircuitHalfOpen                     // Testing if recovered
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 30 * time.Second
)

// ProviderStats tracks health metrics for a single provider
type ProviderStats struct {
	mu sync.RWMutex

	totalRequests int64
	totalFailures int64

	inflight atomic.Int64

	state               CircuitState
	consecutiveFailures int
	lastFailure         time.Time
}

func NewProviderStats() *ProviderStats {
	return &ProviderStats{
		state: CircuitClosed,
	}
}

// IsAvailable checks if the provider is available for requests
// and transitions Open -> HalfOpen once the recovery timeout has passed
func (s *ProviderStats) IsAvailable(recoveryTimeout time.Duration) bool {
	s.mu.RLock()
	state := s.state
	lastFailure := s.lastFailure
	s.mu.RUnlock()

	switch state {
	case CircuitOpen:
		if time.Since(lastFailure) >= recoveryTimeout {
			s.mu.Lock()
			if s.state == CircuitOpen {
				s.state = CircuitHalfOpen
			}
			s.mu.Unlock()
			return true
		}
		return false

	case CircuitHalfOpen:
		// Test recovery with a single request at a time
		return s.inflight.Load() == 0

	default:
		return true
	}
}

// Metrics returns current counters in a thread-safe manner
func (s *ProviderStats) Metrics() (state CircuitState, totalRequests, totalFailures int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state, s.totalRequests, s.totalFailures
}

func (s *ProviderStats) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.consecutiveFailures = 0

	if s.state == CircuitHalfOpen {
		s.state = CircuitClosed
	}
}

func (s *ProviderStats) RecordFailure(failureThreshold int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.totalFailures++
	s.consecutiveFailures++
	s.lastFailure = time.Now()

	if s.state == CircuitHalfOpen || s.consecutiveFailures >= failureThreshold {
		s.state = CircuitOpen
	}
}

func (s *ProviderStats) LastFailure() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFailure
}

// SetHalfOpen transitions the circuit to half-open state
func (s *ProviderStats) SetHalfOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = CircuitHalfOpen
}

func (s *ProviderStats) AddInflight(delta int64) int64 {
	return s.inflight.Add(delta)
}
