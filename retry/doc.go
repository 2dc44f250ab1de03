// Package retry provides policy-driven retry execution for transient
// failures.
//
// A Policy decides how long to wait between attempts (exponential, linear,
// or fixed backoff) and whether a given failure is worth retrying, based on
// HTTP status codes and classified error kinds. An Executor drives repeated
// invocation of an operation under a Policy, enforcing a per-attempt timeout
// and a total wall-clock budget, and returns a structured Outcome describing
// every attempt that was made.
//
// # Usage
//
//	policy, err := retry.NewPolicy(retry.PolicyConfig{
//		MaxAttempts:       3,
//		InitialDelay:      time.Second,
//		MaxDelay:          30 * time.Second,
//		BackoffMultiplier: 2.0,
//		Strategy:          retry.StrategyExponential,
//	})
//	if err != nil {
//		return err
//	}
//
//	exec := retry.NewExecutor(policy)
//	outcome := retry.Do(ctx, exec, "fetch issue", func(ctx context.Context) (*Issue, error) {
//		return fetchIssue(ctx, key)
//	})
//	if !outcome.Succeeded {
//		return outcome.FinalError
//	}
//
// Only transient failures are retried: timeouts, connection failures, other
// network errors, and the retryable status codes (429, 502, 503, 504 by
// default). Anything else, such as a 400 or a 403, stops the loop
// immediately rather than exhausting the remaining attempts.
package retry
