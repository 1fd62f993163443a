package webhook

import (
	"sync"
	"time"
)

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

var circuitStateNames = [...]string{"closed", "open", "half-open"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(circuitStateNames) {
		return "unknown"
	}
	return circuitStateNames[s]
}

// CircuitBreaker opens after a run of consecutive failures and rejects sends
// until the cooldown passes. It then admits trial requests; enough successful trials
// close it, any failed one reopens it.
type CircuitBreaker struct {
	mu sync.Mutex

	maxFailures int
	trials      int
	cooldown    time.Duration
	now         func() time.Time

	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker falls back to 5 failures, 2 trials and a 30 second
// cooldown for non-positive arguments.
func NewCircuitBreaker(maxFailures, trials int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if trials <= 0 {
		trials = 2
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{maxFailures: maxFailures, trials: trials, cooldown: cooldown, now: time.Now}
}

// Allow reports whether a request may go out, moving an open breaker whose
// cooldown has passed to half-open.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen {
		if !cb.cooledDown() {
			return false
		}
		cb.state, cb.successes = CircuitHalfOpen, 0
	}
	return true
}

// Record feeds the outcome of one request into the breaker.
func (cb *CircuitBreaker) Record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if ok {
		cb.failures = 0
		if cb.state == CircuitHalfOpen {
			if cb.successes++; cb.successes >= cb.trials {
				cb.state = CircuitClosed
			}
		}
		return
	}

	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.maxFailures {
		cb.state, cb.openedAt = CircuitOpen, cb.now()
	}
}

// State reports half-open for an open breaker whose cooldown has passed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.cooledDown() {
		return CircuitHalfOpen
	}
	return cb.state
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state, cb.failures, cb.successes, cb.openedAt = CircuitClosed, 0, 0, time.Time{}
}

func (cb *CircuitBreaker) cooledDown() bool {
	return cb.now().Sub(cb.openedAt) > cb.cooldown
}
