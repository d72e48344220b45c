package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 503")

func failing(context.Context) error { return errUpstream }
func passing(context.Context) error { return nil }

func TestBreaker_OpensAndRecovers(t *testing.T) {
	var changes []State
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: 5 * time.Second, HalfOpenMaxRequests: 1},
		WithStateChangeHook(func(_, to State) { changes = append(changes, to) }))

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Do(ctx, failing)
	if state := b.State(); state != StateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}
	_ = b.Do(ctx, failing)
	if state := b.State(); state != StateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected rejection without call, err=%v called=%v", err, called)
	}

	now = now.Add(6 * time.Second)
	if err := b.Do(ctx, passing); err != nil {
		t.Fatalf("expected half-open trial call to pass, got %v", err)
	}
	if state := b.State(); state != StateClosed {
		t.Fatalf("expected closed after successful trial call, got %s", state)
	}

	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(changes) != len(want) {
		t.Fatalf("unexpected transitions: %v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("unexpected transitions: %v", changes)
		}
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Second, HalfOpenMaxRequests: 1})
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Do(ctx, failing)
	now = now.Add(2 * time.Second)
	_ = b.Do(ctx, failing)

	if state := b.State(); state != StateOpen {
		t.Fatalf("expected open after failed trial call, got %s", state)
	}
}

func TestBreaker_ClassifierIgnoresPermanentErrors(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	b := NewBreaker(BreakerConfig{Enabled: true, FailureThreshold: 1},
		WithTripClassifier(func(err error) bool { return errors.Is(err, errUpstream) }))

	for i := 0; i < 3; i++ {
		if err := b.Do(context.Background(), func(context.Context) error { return permanent }); !errors.Is(err, permanent) {
			t.Fatalf("expected permanent error to pass through, got %v", err)
		}
	}
	if state := b.State(); state != StateClosed {
		t.Fatalf("expected breaker to stay closed, got %s", state)
	}
}

func TestBreaker_DisabledIsPassThrough(t *testing.T) {
	t.Parallel()

	var b *Breaker = NewBreaker(BreakerConfig{Enabled: false})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	if err := b.Do(context.Background(), failing); !errors.Is(err, errUpstream) {
		t.Fatalf("expected call to run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected nil breaker to report closed")
	}
}
