package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker protects an upstream dependency from repeated failing
// calls. Closed counts consecutive failures, open rejects until the
// retry deadline passes, half-open lets a bounded probe batch through.
type CircuitBreaker struct {
	threshold   int
	openTimeout time.Duration
	maxProbes   int

	mu        sync.Mutex
	state     CircuitState
	failures  int
	retryAt   time.Time
	probes    int
	probeWins int
	now       func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg = NormalizeCircuitBreakerConfig(cfg)
	return &CircuitBreaker{
		threshold:   cfg.FailureThreshold,
		openTimeout: cfg.OpenTimeout,
		maxProbes:   cfg.HalfOpenMaxReq,
		state:       CircuitStateClosed,
		now:         time.Now,
	}
}

// Allow admits or rejects one call. An admitted call must be followed
// by RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateOpen:
		if b.now().Before(b.retryAt) {
			return ErrCircuitOpen
		}
		b.transition(CircuitStateHalfOpen)
		fallthrough
	case CircuitStateHalfOpen:
		if b.probes >= b.maxProbes {
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.probeDone()
		b.probeWins++
		if b.probeWins >= b.maxProbes && b.probes == 0 {
			b.transition(CircuitStateClosed)
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.transition(CircuitStateOpen)
		}
	case CircuitStateHalfOpen:
		b.probeDone()
		b.transition(CircuitStateOpen)
	case CircuitStateOpen:
		b.retryAt = b.now().Add(b.openTimeout)
	}
}

// Do wraps one call with the admit/record cycle.
func (b *CircuitBreaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}

// State reports the effective state: an open breaker whose retry
// deadline has passed reads as half-open.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && !b.now().Before(b.retryAt) {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) probeDone() {
	if b.probes > 0 {
		b.probes--
	}
}

func (b *CircuitBreaker) transition(next CircuitState) {
	b.state = next
	b.probes = 0
	b.probeWins = 0
	switch next {
	case CircuitStateClosed:
		b.failures = 0
		b.retryAt = time.Time{}
	case CircuitStateOpen:
		b.retryAt = b.now().Add(b.openTimeout)
	}
}
