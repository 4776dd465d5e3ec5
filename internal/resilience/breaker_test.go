package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func fail() error    { return errTest }
func succeed() error { return nil }

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker(3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Second)

	for range 3 {
		_ = b.Execute(fail)
	}

	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if got := b.State(); got != StateOpen {
		t.Errorf("state = %s, want open", got)
	}
}

func TestHalfOpenProbe(t *testing.T) {
	tests := []struct {
		name      string
		probe     func() error
		wantState State
	}{
		{name: "success closes", probe: succeed, wantState: StateClosed},
		{name: "failure reopens", probe: fail, wantState: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Now()
			b := NewBreaker(2, time.Second)
			b.now = func() time.Time { return now }

			for range 2 {
				_ = b.Execute(fail)
			}
			now = now.Add(2 * time.Second)

			if got := b.State(); got != StateHalfOpen {
				t.Fatalf("state = %s, want half-open", got)
			}

			called := false
			_ = b.Execute(func() error {
				called = true
				return tt.probe()
			})
			if !called {
				t.Fatal("expected probe to run in half-open")
			}
			if got := b.State(); got != tt.wantState {
				t.Errorf("state = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestHalfOpenAllowsSingleProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker(1, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(fail)
	now = now.Add(2 * time.Second)

	var inner error
	_ = b.Execute(func() error {
		// A second caller arrives while the probe is in flight.
		inner = b.Execute(succeed)
		return nil
	})
	if !errors.Is(inner, ErrCircuitOpen) {
		t.Errorf("concurrent call during probe: got %v, want ErrCircuitOpen", inner)
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Second)

	_ = b.Execute(fail)
	_ = b.Execute(fail)
	_ = b.Execute(succeed)
	_ = b.Execute(fail)
	_ = b.Execute(fail)

	if err := b.Execute(succeed); err != nil {
		t.Fatalf("expected circuit to stay closed, got %v", err)
	}
}

func TestCallerCancellationIsNotAFailure(t *testing.T) {
	b := NewBreaker(1, time.Second)

	err := b.Execute(func() error { return fmt.Errorf("request: %w", context.Canceled) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled to be returned, got %v", err)
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestDeadlineCountsAsFailure(t *testing.T) {
	b := NewBreaker(1, time.Second)
	_ = b.Execute(func() error { return context.DeadlineExceeded })
	if got := b.State(); got != StateOpen {
		t.Errorf("state = %s, want open", got)
	}
}
