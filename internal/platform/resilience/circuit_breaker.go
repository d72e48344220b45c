package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker guards a dependency. After FailureThreshold consecutive tripping
// failures it rejects calls for OpenTimeout, then lets HalfOpenMaxRequests calls
// through; all of them must succeed to close again.
type Breaker struct {
	mu  sync.Mutex
	cfg BreakerConfig

	state      State
	failures   int
	openedAt   time.Time
	inFlight   int
	successes  int
	shouldTrip func(error) bool
	onChange   func(from, to State)
	now        func() time.Time
}

type BreakerOption func(*Breaker)

// WithTripClassifier decides which errors count against the breaker.
// By default every non-nil error except context cancellation does.
func WithTripClassifier(fn func(error) bool) BreakerOption {
	return func(b *Breaker) {
		if fn != nil {
			b.shouldTrip = fn
		}
	}
}

func WithStateChangeHook(fn func(from, to State)) BreakerOption {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// NewBreaker returns nil when cfg is disabled; a nil *Breaker passes every
// call through.
func NewBreaker(cfg BreakerConfig, opts ...BreakerOption) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	b := &Breaker{
		cfg:        cfg.Normalize(),
		state:      StateClosed,
		shouldTrip: defaultShouldTrip,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func defaultShouldTrip(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Do runs fn when the breaker admits the call and records its outcome.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if b == nil {
		return fn(ctx)
	}
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(b.shouldTrip(err))
	return err
}

func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.OpenTimeout {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.cfg.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		b.inFlight++
	}
	return nil
}

func (b *Breaker) record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if !failed {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		if failed {
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.cfg.HalfOpenMaxRequests && b.inFlight == 0 {
			b.transition(StateClosed)
		}
	case StateOpen:
		// a call admitted before the trip finished late
		if failed {
			b.openedAt = b.now()
		}
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.inFlight = 0
	b.successes = 0
	switch to {
	case StateOpen:
		b.openedAt = b.now()
	case StateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	}
	if b.onChange != nil && from != to {
		b.onChange(from, to)
	}
}
