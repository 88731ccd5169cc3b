package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking the wrapped call while
// the breaker is open. Callers treat it like any other service failure
// and fall back to local analysis.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitState is the breaker's position in the closed/open/half-open
// cycle.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// String renders the state for health payloads and metrics labels.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards one analysis service. Consecutive failures open
// the circuit; after the reset timeout a limited number of probe calls
// run half-open, and enough successes close it again.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	probeQuota   int // Calls allowed half-open before the probes decide

	// onStateChange, when set, observes transitions for metrics.
	onStateChange func(name string, from, to CircuitState)

	mu            sync.Mutex
	state         CircuitState
	failures      int
	probeSuccess  int
	probeInFlight int
	lastFailure   time.Time

	totalRequests int64
	totalFailures int64
}

// NewCircuitBreaker builds a closed breaker for the named service.
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		probeQuota:   3,
		state:        StateClosed,
	}
}

// OnStateChange registers a transition observer. Must be called before
// the breaker is shared between goroutines.
func (cb *CircuitBreaker) OnStateChange(fn func(name string, from, to CircuitState)) {
	cb.onStateChange = fn
}

// Name returns the guarded service name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// Call runs fn under the breaker, returning ErrCircuitOpen without
// calling it when the circuit is open.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.resetTimeout {
			cb.transition(StateHalfOpen)
			cb.probeInFlight++
			return true
		}
		return false
	case StateHalfOpen:
		if cb.probeInFlight < cb.probeQuota {
			cb.probeInFlight++
			return true
		}
		return false
	}
	return false
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++
	if !success {
		cb.totalFailures++
		cb.lastFailure = time.Now()
	}

	switch cb.state {
	case StateClosed:
		if success {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.transition(StateOpen)
		}

	case StateHalfOpen:
		if !success {
			// One failed probe reopens immediately
			cb.transition(StateOpen)
			return
		}
		cb.probeSuccess++
		if cb.probeSuccess >= cb.probeQuota {
			cb.transition(StateClosed)
		}
	}
}

// transition must run with the mutex held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.failures = 0
	cb.probeSuccess = 0
	cb.probeInFlight = 0

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats reports lifetime request and failure counts.
func (cb *CircuitBreaker) Stats() (requests, failures int64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalRequests, cb.totalFailures
}

// Reset forces the breaker closed. Used by tests and the admin surface.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}
