package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFactorIntervals(t *testing.T) {
	s := NewStrategy(WithFactor(0.2), WithMaxRetries(5), WithMaxInterval(time.Minute))
	r := s.NewRetry()

	// the first retry is immediate, then factor*2^(n-1) for the n-th failure
	want := []time.Duration{
		0,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1600 * time.Millisecond,
		3200 * time.Millisecond,
	}
	for i, w := range want {
		got, ok := r.NextInterval()
		if !ok {
			t.Fatalf("retry %d: unexpectedly exhausted", i+1)
		}
		if got != w {
			t.Errorf("retry %d: interval %v, want %v", i+1, got, w)
		}
	}
	if _, ok := r.NextInterval(); ok {
		t.Error("expected retries to be exhausted after 5")
	}
}

func TestMaxIntervalCap(t *testing.T) {
	s := NewStrategy(WithInitialInterval(time.Second), WithMultiplier(10),
		WithRandomizationFactor(0), WithMaxInterval(3*time.Second))
	r := s.NewRetry()
	r.NextInterval()
	got, _ := r.NextInterval()
	if got != 3*time.Second {
		t.Errorf("expected capped interval 3s, got %v", got)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	s := NewStrategy(WithFactor(0.001), WithMaxRetries(5))
	calls := 0
	err := Do(context.Background(), s, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	s := NewStrategy(WithFactor(0.001), WithMaxRetries(5))
	sentinel := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), s, func() error {
		calls++
		return Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestDoExhausted(t *testing.T) {
	s := NewStrategy(WithFactor(0.001), WithMaxRetries(2))
	sentinel := errors.New("down")
	calls := 0
	err := Do(context.Background(), s, func() error {
		calls++
		return sentinel
	})
	var be *BackoffError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BackoffError, got %T", err)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d calls", calls)
	}
}

func TestDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, NewStrategy(), func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoNotifyHonoursRetryAfter(t *testing.T) {
	s := NewStrategy(WithFactor(0.001), WithMaxRetries(3))
	type call struct {
		retry int
		wait  time.Duration
	}
	var notified []call
	calls := 0
	err := DoNotify(context.Background(), s, func() error {
		calls++
		switch calls {
		case 1:
			return RetryAfter(errors.New("slow down"), 20*time.Millisecond)
		case 2:
			return errors.New("transient")
		}
		return nil
	}, func(err error, retry int, wait time.Duration) {
		notified = append(notified, call{retry, wait})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notified) != 2 {
		t.Fatalf("expected 2 notifications, got %v", notified)
	}
	if notified[0].retry != 1 || notified[0].wait != 20*time.Millisecond {
		t.Errorf("first retry should wait for Retry-After, got %+v", notified[0])
	}
	if notified[1].retry != 2 || notified[1].wait != 2*time.Millisecond {
		t.Errorf("second retry should follow the factor, got %+v", notified[1])
	}
}

func TestRetryAfterWrapping(t *testing.T) {
	base := errors.New("rate limited")
	if got := RetryAfter(base, 0); got != base {
		t.Errorf("zero delay should return the error unchanged, got %v", got)
	}
	if RetryAfter(nil, time.Second) != nil {
		t.Error("nil error should stay nil")
	}
	err := RetryAfter(base, time.Second)
	var ra *RetryAfterError
	if !errors.As(err, &ra) || ra.After != time.Second {
		t.Fatalf("expected *RetryAfterError with 1s, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected the wrapped error to be reachable")
	}
}
