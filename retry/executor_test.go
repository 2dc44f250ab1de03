package retry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// noSleep replaces the executor's delay with an instant return while
// recording what it was asked to wait.
func noSleep(record *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*record = append(*record, d)
		return nil
	}
}

func mustPolicy(t *testing.T, cfg PolicyConfig) *Policy {
	t.Helper()
	p, err := NewPolicy(cfg)
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	return p
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	e := NewExecutor(nil)

	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	if !outcome.Succeeded {
		t.Fatalf("Succeeded = false, FinalError = %v", outcome.FinalError)
	}
	if outcome.Result != "ok" {
		t.Errorf("Result = %q, want %q", outcome.Result, "ok")
	}
	if len(outcome.Attempts) != 1 {
		t.Fatalf("len(Attempts) = %d, want 1", len(outcome.Attempts))
	}
	if d := outcome.Attempts[0].DelayBefore; d != 0 {
		t.Errorf("first attempt DelayBefore = %v, want 0", d)
	}
	if !outcome.Attempts[0].Succeeded {
		t.Error("first attempt record not marked succeeded")
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	var slept []time.Duration
	policy := mustPolicy(t, PolicyConfig{
		MaxAttempts:       3,
		InitialDelay:      10 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
	})
	e := NewExecutor(policy, WithSleep(noSleep(&slept)))

	calls := 0
	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTimeout{}
		}
		return 42, nil
	})

	if !outcome.Succeeded {
		t.Fatalf("Succeeded = false, FinalError = %v", outcome.FinalError)
	}
	if outcome.Result != 42 {
		t.Errorf("Result = %d, want 42", outcome.Result)
	}
	if len(outcome.Attempts) != 3 {
		t.Fatalf("len(Attempts) = %d, want 3", len(outcome.Attempts))
	}
	for i, rec := range outcome.Attempts[:2] {
		if rec.Succeeded {
			t.Errorf("attempt %d marked succeeded, want failed", i+1)
		}
		if rec.ErrorMessage == "" {
			t.Errorf("attempt %d has empty ErrorMessage", i+1)
		}
	}
	if !outcome.Attempts[2].Succeeded {
		t.Error("final attempt not marked succeeded")
	}

	wantSlept := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(slept) != len(wantSlept) {
		t.Fatalf("slept %v times, want %v", len(slept), len(wantSlept))
	}
	for i, w := range wantSlept {
		if slept[i] != w {
			t.Errorf("delay before attempt %d = %v, want %v", i+2, slept[i], w)
		}
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	var slept []time.Duration
	e := NewExecutor(nil, WithSleep(noSleep(&slept)))

	calls := 0
	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("invalid input")
	})

	if outcome.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if calls != 1 {
		t.Errorf("operation called %d times, want 1", calls)
	}
	if len(slept) != 0 {
		t.Errorf("executor slept %d times for a non-retryable failure", len(slept))
	}
	if outcome.FinalError == nil {
		t.Error("FinalError = nil, want error")
	}
	if outcome.TimeoutExceeded {
		t.Error("TimeoutExceeded = true for a non-retryable failure")
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	var slept []time.Duration
	policy := mustPolicy(t, PolicyConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
	})
	e := NewExecutor(policy, WithSleep(noSleep(&slept)))

	calls := 0
	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errTimeout{}
	})

	if outcome.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if calls != 2 {
		t.Errorf("operation called %d times, want 2", calls)
	}
	if len(outcome.Attempts) != 2 {
		t.Errorf("len(Attempts) = %d, want 2", len(outcome.Attempts))
	}
	if outcome.FinalError == nil {
		t.Error("FinalError = nil after exhaustion")
	}
}

func TestDoTotalTimeout(t *testing.T) {
	policy := mustPolicy(t, PolicyConfig{
		MaxAttempts:  10,
		InitialDelay: time.Millisecond,
		TotalTimeout: time.Second,
	})

	// Advance a fake clock by more than the budget per attempt so the
	// between-attempt check trips after the first failure.
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(600 * time.Millisecond)
		return now
	}
	var slept []time.Duration
	e := NewExecutor(policy, WithClock(clock), WithSleep(noSleep(&slept)))

	calls := 0
	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errTimeout{}
	})

	if outcome.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if !outcome.TimeoutExceeded {
		t.Error("TimeoutExceeded = false, want true")
	}
	if calls >= 10 {
		t.Errorf("operation called %d times, budget never enforced", calls)
	}
	if outcome.FinalError == nil {
		t.Error("FinalError = nil, want error from last attempt")
	}
}

func TestDoPerAttemptTimeout(t *testing.T) {
	policy := mustPolicy(t, PolicyConfig{
		MaxAttempts:       2,
		InitialDelay:      time.Millisecond,
		TimeoutPerAttempt: 20 * time.Millisecond,
	})
	var slept []time.Duration
	e := NewExecutor(policy, WithSleep(noSleep(&slept)))

	outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
		<-ctx.Done()
		return struct{}{}, ctx.Err()
	})

	if outcome.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	// Deadline errors classify as timeouts, so both attempts run.
	if len(outcome.Attempts) != 2 {
		t.Fatalf("len(Attempts) = %d, want 2", len(outcome.Attempts))
	}
	if !errors.Is(outcome.FinalError, context.DeadlineExceeded) {
		t.Errorf("FinalError = %v, want deadline exceeded", outcome.FinalError)
	}
}

func TestDoStatusCodeDecidesRetry(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int
	}{
		{name: "503 retried to exhaustion", status: 503, wantCalls: 3},
		{name: "404 not retried", status: 404, wantCalls: 1},
		{name: "400 not retried", status: 400, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			e := NewExecutor(nil, WithSleep(noSleep(&slept)))

			calls := 0
			outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
				calls++
				return struct{}{}, &statusErr{status: tt.status}
			})

			if calls != tt.wantCalls {
				t.Errorf("operation called %d times, want %d", calls, tt.wantCalls)
			}
			if got := outcome.Attempts[0].StatusCode; got != tt.status {
				t.Errorf("recorded StatusCode = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestDoContextCancelledDuringSleep(t *testing.T) {
	policy := mustPolicy(t, PolicyConfig{
		MaxAttempts:  3,
		InitialDelay: time.Minute,
		MaxDelay:     time.Minute,
	})
	e := NewExecutor(policy)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	go func() {
		// Cancel once the first attempt has failed and the executor is
		// sleeping out the long delay.
		for calls.Load() == 0 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	outcome := Do(ctx, e, "test", func(ctx context.Context) (struct{}, error) {
		calls.Add(1)
		return struct{}{}, errTimeout{}
	})

	if outcome.Succeeded {
		t.Error("Succeeded = true, want false")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("operation called %d times, want 1", n)
	}
	if !errors.Is(outcome.FinalError, context.Canceled) {
		t.Errorf("FinalError = %v, want context.Canceled", outcome.FinalError)
	}
}

func TestDoHonorsRetryAfterHint(t *testing.T) {
	tests := []struct {
		name      string
		hint      time.Duration
		wantSleep time.Duration
	}{
		{name: "hint longer than backoff wins", hint: 5 * time.Second, wantSleep: 5 * time.Second},
		{name: "hint shorter than backoff ignored", hint: time.Millisecond, wantSleep: 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var slept []time.Duration
			policy := mustPolicy(t, PolicyConfig{
				MaxAttempts:       3,
				InitialDelay:      10 * time.Millisecond,
				MaxDelay:          time.Minute,
				BackoffMultiplier: 2.0,
			})
			e := NewExecutor(policy, WithSleep(noSleep(&slept)))

			calls := 0
			outcome := Do(context.Background(), e, "test", func(ctx context.Context) (struct{}, error) {
				calls++
				if calls == 1 {
					return struct{}{}, &rateErr{after: tt.hint}
				}
				return struct{}{}, nil
			})

			if !outcome.Succeeded {
				t.Fatalf("Succeeded = false, FinalError = %v", outcome.FinalError)
			}
			if len(slept) != 1 {
				t.Fatalf("slept %d times, want 1", len(slept))
			}
			if slept[0] != tt.wantSleep {
				t.Errorf("slept %v, want %v", slept[0], tt.wantSleep)
			}
		})
	}
}

func TestRetryAfterExtraction(t *testing.T) {
	hint := &rateErr{after: 2 * time.Second}
	if got := RetryAfter(fmt.Errorf("list issues: %w", hint)); got != 2*time.Second {
		t.Errorf("RetryAfter(wrapped) = %v, want 2s", got)
	}
	if got := RetryAfter(errors.New("plain")); got != 0 {
		t.Errorf("RetryAfter(plain) = %v, want 0", got)
	}
	if got := RetryAfter(nil); got != 0 {
		t.Errorf("RetryAfter(nil) = %v, want 0", got)
	}
}

// statusErr carries an HTTP status for classification.
type statusErr struct {
	status int
}

func (e *statusErr) Error() string   { return "api error" }
func (e *statusErr) HTTPStatus() int { return e.status }

// rateErr carries both a 429 status and a server wait hint.
type rateErr struct {
	after time.Duration
}

func (e *rateErr) Error() string                 { return "rate limited" }
func (e *rateErr) HTTPStatus() int               { return 429 }
func (e *rateErr) RetryAfterHint() time.Duration { return e.after }
