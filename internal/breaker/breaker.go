// Package breaker implements per-dependency failure isolation. Each
// downstream service gets its own CircuitBreaker; sustained failures
// open the circuit and calls fail fast until a cooldown expires.
package breaker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	Closed   State = iota // Normal operation, calls pass through.
	Open                  // Calls rejected immediately.
	HalfOpen              // Probe calls allowed to test recovery.
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// ErrOpen is returned when the circuit rejects a call without
// attempting the dependency.
type ErrOpen struct {
	Name       string
	RetryAfter time.Duration
}

func (e *ErrOpen) Error() string {
	return fmt.Sprintf("%s: circuit open, retry in %ds", e.Name, int(e.RetryAfter.Seconds()))
}

// Config tunes a breaker.
type Config struct {
	FailureThreshold int           // Consecutive failures to open
	SuccessThreshold int           // Consecutive half-open successes to close
	CallTimeout      time.Duration // Per-call deadline; exceeding it is a failure
	ResetTimeout     time.Duration // Cooldown before probing
}

// DefaultConfig returns tuned defaults: 5 failures to open, 2
// successes to close, 10s calls, 30s cooldown.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CallTimeout:      10 * time.Second,
		ResetTimeout:     30 * time.Second,
	}
}

// Status is a read-only snapshot for the observability surface.
type Status struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Failures        int       `json:"consecutive_failures"`
	Successes       int       `json:"consecutive_successes"`
	NextAttempt     time.Time `json:"next_attempt,omitempty"`
	TotalRequests   int64     `json:"total_requests"`
	TotalFailures   int64     `json:"total_failures"`
	TotalRejections int64     `json:"total_rejections"`
	TotalTimeouts   int64     `json:"total_timeouts"`
}

// CircuitBreaker is the per-dependency state machine. Thread-safe; the
// breaker owns its state exclusively and readers get copies.
type CircuitBreaker struct {
	name string
	cfg  Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	nextAttempt time.Time

	totalRequests   int64
	totalFailures   int64
	totalRejections int64
	totalTimeouts   int64

	now func() time.Time // injectable clock for testing
}

// New creates a breaker for the named dependency.
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg,
		state: Closed,
		now:   time.Now,
	}
}

// Execute runs fn through the breaker. If the circuit is open the call
// is rejected immediately with *ErrOpen. The call races the configured
// timeout: exceeding it counts as a failure and is recorded as a
// distinct timeout statistic.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.before(); err != nil {
		return err
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if cb.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, cb.cfg.CallTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- fn(callCtx) }()

	select {
	case err := <-done:
		if err != nil {
			cb.recordFailure(false)
			return err
		}
		cb.recordSuccess()
		return nil
	case <-callCtx.Done():
		cb.recordFailure(true)
		return fmt.Errorf("%s: call timed out: %w", cb.name, callCtx.Err())
	}
}

// before checks admission and counts the request. Returns *ErrOpen on
// rejection.
func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.maybeTransition()
	cb.totalRequests++

	if cb.state == Open {
		cb.totalRejections++
		return &ErrOpen{Name: cb.name, RetryAfter: cb.nextAttempt.Sub(cb.now())}
	}
	return nil
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case HalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.state = Closed
			cb.failures = 0
			cb.successes = 0
		}
	case Closed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) recordFailure(timeout bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalFailures++
	if timeout {
		cb.totalTimeouts++
	}

	switch cb.state {
	case Closed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.open()
		}
	case HalfOpen:
		// Any failure in half-open goes straight back to open.
		cb.open()
	}
}

// open transitions to Open and schedules the next probe. Must be
// called with mu held.
func (cb *CircuitBreaker) open() {
	cb.state = Open
	cb.successes = 0
	cb.nextAttempt = cb.now().Add(cb.cfg.ResetTimeout)
}

// maybeTransition moves an expired Open circuit to HalfOpen. Must be
// called with mu held.
func (cb *CircuitBreaker) maybeTransition() {
	if cb.state == Open && !cb.now().Before(cb.nextAttempt) {
		cb.state = HalfOpen
		cb.successes = 0
	}
}

// State returns the current state, applying any due transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransition()
	return cb.state
}

// Reset forces the breaker back to closed. Operator action only.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
}

// Snapshot returns a copy of the breaker's state and counters.
func (cb *CircuitBreaker) Snapshot() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransition()
	return Status{
		Name:            cb.name,
		State:           cb.state.String(),
		Failures:        cb.failures,
		Successes:       cb.successes,
		NextAttempt:     cb.nextAttempt,
		TotalRequests:   cb.totalRequests,
		TotalFailures:   cb.totalFailures,
		TotalRejections: cb.totalRejections,
		TotalTimeouts:   cb.totalTimeouts,
	}
}

// SetClock replaces the breaker's clock (for testing).
func (cb *CircuitBreaker) SetClock(fn func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = fn
}
