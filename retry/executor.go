package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Operation is a single retryable unit of work. The context carries the
// per-attempt timeout when one is configured.
type Operation[T any] func(ctx context.Context) (T, error)

// AttemptRecord documents one attempt. Records are appended in order and
// never mutated after End is set.
type AttemptRecord struct {
	// Attempt is the 1-based attempt number.
	Attempt int

	// DelayBefore is how long the executor slept before this attempt.
	DelayBefore time.Duration

	// Start and End bracket the attempt. End is zero only while the
	// attempt is in flight.
	Start time.Time
	End   time.Time

	// Succeeded reports whether the operation returned without error.
	Succeeded bool

	// ErrorMessage holds the failure text, empty on success.
	ErrorMessage string

	// StatusCode is the HTTP status carried by the failure, zero if none.
	StatusCode int
}

// Outcome is the terminal result of one execution. It is returned exactly
// once and never reused across calls.
type Outcome[T any] struct {
	// Succeeded reports whether any attempt completed without error.
	Succeeded bool

	// Result is the value from the successful attempt.
	Result T

	// Attempts holds one record per attempt, in order.
	Attempts []AttemptRecord

	// TotalDuration is the wall-clock time spent, including delays.
	TotalDuration time.Duration

	// FinalError is the error from the last attempt, nil on success.
	FinalError error

	// TimeoutExceeded is set when the total-timeout budget was spent
	// before the attempt limit was reached.
	TimeoutExceeded bool
}

// Executor drives repeated invocation of operations under a Policy.
// An Executor is stateless between calls and safe for concurrent use.
type Executor struct {
	policy *Policy
	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for per-attempt debug logging.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

// WithSleep overrides the delay function (for tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ExecutorOption {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// NewExecutor creates an Executor for the given policy. A nil policy uses
// DefaultPolicy.
func NewExecutor(policy *Policy, opts ...ExecutorOption) *Executor {
	e := &Executor{policy: policy}

	for _, opt := range opts {
		opt(e)
	}

	if e.policy == nil {
		e.policy = DefaultPolicy()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}

	return e
}

// Policy returns the executor's policy.
func (e *Executor) Policy() *Policy { return e.policy }

// Do runs op until it succeeds, the policy gives up, or the total-timeout
// budget is spent. The first attempt runs with zero delay. Each attempt
// fully completes before the next is considered; the total-timeout budget
// is polled between attempts, not enforced by cancelling one in flight.
func Do[T any](ctx context.Context, e *Executor, label string, op Operation[T]) *Outcome[T] {
	start := e.now()
	outcome := &Outcome[T]{
		Attempts: make([]AttemptRecord, 0, e.policy.MaxAttempts()),
	}

	var lastErr error
	for attempt := 0; attempt < e.policy.MaxAttempts(); attempt++ {
		var delay time.Duration
		if attempt > 0 {
			if total := e.policy.TotalTimeout(); total > 0 && e.now().Sub(start) >= total {
				outcome.TimeoutExceeded = true
				e.logger.Debug("retry budget exhausted",
					"label", label,
					"attempts", attempt,
					"elapsed", e.now().Sub(start),
				)
				break
			}

			delay = e.policy.ComputeDelay(attempt - 1)
			// A server-provided Retry-After hint overrides a shorter
			// computed backoff.
			if hint := RetryAfter(lastErr); hint > delay {
				delay = hint
			}
			if err := e.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		rec := AttemptRecord{
			Attempt:     attempt + 1,
			DelayBefore: delay,
			Start:       e.now(),
		}

		result, err := runAttempt(ctx, e, op)
		rec.End = e.now()

		if err == nil {
			rec.Succeeded = true
			outcome.Attempts = append(outcome.Attempts, rec)
			outcome.Succeeded = true
			outcome.Result = result
			outcome.TotalDuration = e.now().Sub(start)
			return outcome
		}

		rec.ErrorMessage = err.Error()
		rec.StatusCode = StatusCode(err)
		outcome.Attempts = append(outcome.Attempts, rec)
		lastErr = err

		var retryable bool
		if rec.StatusCode > 0 {
			retryable = e.policy.IsRetryable(attempt+1, nil, rec.StatusCode)
		} else {
			retryable = e.policy.IsRetryable(attempt+1, err, 0)
		}

		e.logger.Debug("attempt failed",
			"label", label,
			"attempt", rec.Attempt,
			"status", rec.StatusCode,
			"retryable", retryable,
			"error", err,
		)

		if !retryable {
			break
		}
	}

	outcome.FinalError = lastErr
	outcome.TotalDuration = e.now().Sub(start)
	return outcome
}

// runAttempt executes one attempt under the per-attempt timeout. A timed-out
// attempt is abandoned: its context is cancelled and its result discarded.
func runAttempt[T any](ctx context.Context, e *Executor, op Operation[T]) (T, error) {
	if perAttempt := e.policy.TimeoutPerAttempt(); perAttempt > 0 {
		attemptCtx, cancel := context.WithTimeout(ctx, perAttempt)
		defer cancel()
		result, err := op(attemptCtx)
		if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			// Attribute the failure to the attempt timeout, not the
			// operation's own error text.
			return result, context.DeadlineExceeded
		}
		return result, err
	}
	return op(ctx)
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
