package resilience

import (
	"errors"
	"testing"
	"time"
)

type transition struct{ from, to BreakerState }

func newTestBreaker(t *testing.T, cfg BreakerConfig) (*Breaker, *time.Time, *[]transition) {
	t.Helper()

	var seen []transition
	cfg.Enabled = true
	cfg.OnStateChange = func(from, to BreakerState) {
		seen = append(seen, transition{from, to})
	}
	b := NewBreaker(cfg)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now, &seen
}

func TestBreaker_OpensAndRecovers(t *testing.T) {
	b, now, seen := newTestBreaker(t, BreakerConfig{FailureThreshold: 2, OpenTimeout: 30 * time.Second})

	for i := 0; i < 2; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("closed breaker rejected call %d: %v", i, err)
		}
		b.Record(true)
	}
	if state := b.State(); state != BreakerOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("expected ErrBreakerOpen, got %v", err)
	}

	*now = now.Add(30 * time.Second)
	if state := b.State(); state != BreakerHalfOpen {
		t.Fatalf("expected half_open after timeout, got %s", state)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass: %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("second probe must wait, got %v", err)
	}
	b.Record(false)
	if state := b.State(); state != BreakerClosed {
		t.Fatalf("expected closed after probe success, got %s", state)
	}

	want := []transition{
		{BreakerClosed, BreakerOpen},
		{BreakerOpen, BreakerHalfOpen},
		{BreakerHalfOpen, BreakerClosed},
	}
	if len(*seen) != len(want) {
		t.Fatalf("unexpected transitions: %+v", *seen)
	}
	for i := range want {
		if (*seen)[i] != want[i] {
			t.Fatalf("transition %d: want %+v, got %+v", i, want[i], (*seen)[i])
		}
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b, now, _ := newTestBreaker(t, BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})

	_ = b.Allow()
	b.Record(true)
	*now = now.Add(time.Minute)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe: %v", err)
	}
	b.Record(true)

	if state := b.State(); state != BreakerOpen {
		t.Fatalf("expected reopen after failed probe, got %s", state)
	}
	*now = now.Add(59 * time.Second)
	if err := b.Allow(); !errors.Is(err, ErrBreakerOpen) {
		t.Fatalf("open timeout must restart from the failed probe, got %v", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _, _ := newTestBreaker(t, BreakerConfig{FailureThreshold: 2})

	for _, failed := range []bool{true, false, true} {
		_ = b.Allow()
		b.Record(failed)
	}
	if state := b.State(); state != BreakerClosed {
		t.Fatalf("non-consecutive failures must not trip, got %s", state)
	}
}

func TestBreaker_DisabledIsNil(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1})
	if b != nil {
		t.Fatalf("disabled config must yield nil breaker")
	}
	for i := 0; i < 3; i++ {
		if err := b.Allow(); err != nil {
			t.Fatalf("nil breaker rejected call: %v", err)
		}
		b.Record(true)
	}
	if state := b.State(); state != BreakerClosed {
		t.Fatalf("nil breaker state = %s", state)
	}
}
