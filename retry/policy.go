package retry

import (
	"errors"
	"math"
	"time"
)

// Strategy selects how the delay between attempts grows.
type Strategy string

// Backoff strategies.
const (
	// StrategyExponential multiplies the delay by BackoffMultiplier after
	// each attempt, capped at MaxDelay.
	StrategyExponential Strategy = "exponential"

	// StrategyLinear grows the delay as InitialDelay * (1 + attempt).
	StrategyLinear Strategy = "linear"

	// StrategyFixed always waits InitialDelay.
	StrategyFixed Strategy = "fixed"
)

// Policy configuration errors.
var (
	ErrPolicyMaxAttempts  = errors.New("retry: max attempts must be at least 1")
	ErrPolicyDelayRange   = errors.New("retry: initial delay must not exceed max delay")
	ErrPolicyMultiplier   = errors.New("retry: backoff multiplier must be greater than zero")
	ErrPolicyStrategy     = errors.New("retry: strategy must be exponential, linear, or fixed")
	ErrPolicyNegativeTime = errors.New("retry: timeouts must not be negative")
)

// Default policy values.
const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = 1 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// DefaultRetryableStatusCodes are the HTTP status codes retried by default.
func DefaultRetryableStatusCodes() []int {
	return []int{429, 502, 503, 504}
}

// DefaultRetryableErrorKinds are the error kinds retried by default.
func DefaultRetryableErrorKinds() []ErrorKind {
	return []ErrorKind{KindTimeout, KindConnect, KindNetwork}
}

// PolicyConfig holds the tuning knobs for a Policy.
type PolicyConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay for growing strategies.
	MaxDelay time.Duration

	// BackoffMultiplier is the growth factor for StrategyExponential.
	BackoffMultiplier float64

	// Strategy selects the backoff curve.
	Strategy Strategy

	// TimeoutPerAttempt bounds each individual attempt. Zero disables it.
	TimeoutPerAttempt time.Duration

	// TotalTimeout bounds the whole execution, checked between attempts.
	// Zero means unbounded.
	TotalTimeout time.Duration

	// RetryableStatusCodes overrides the default retryable status set.
	RetryableStatusCodes []int

	// RetryableErrorKinds overrides the default retryable error kinds.
	RetryableErrorKinds []ErrorKind
}

// Policy computes per-attempt delays and decides whether a failure is
// retryable. A Policy is immutable once constructed.
type Policy struct {
	maxAttempts       int
	initialDelay      time.Duration
	maxDelay          time.Duration
	multiplier        float64
	strategy          Strategy
	timeoutPerAttempt time.Duration
	totalTimeout      time.Duration
	statusCodes       map[int]struct{}
	errorKinds        map[ErrorKind]struct{}
}

// NewPolicy validates the configuration and builds a Policy. Zero-valued
// fields fall back to defaults.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.BackoffMultiplier == 0 {
		cfg.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyExponential
	}

	if cfg.MaxAttempts < 1 {
		return nil, ErrPolicyMaxAttempts
	}
	if cfg.InitialDelay > cfg.MaxDelay {
		return nil, ErrPolicyDelayRange
	}
	if cfg.BackoffMultiplier <= 0 {
		return nil, ErrPolicyMultiplier
	}
	if cfg.Strategy != StrategyExponential && cfg.Strategy != StrategyLinear && cfg.Strategy != StrategyFixed {
		return nil, ErrPolicyStrategy
	}
	if cfg.TimeoutPerAttempt < 0 || cfg.TotalTimeout < 0 || cfg.InitialDelay < 0 {
		return nil, ErrPolicyNegativeTime
	}

	statusCodes := cfg.RetryableStatusCodes
	if statusCodes == nil {
		statusCodes = DefaultRetryableStatusCodes()
	}
	errorKinds := cfg.RetryableErrorKinds
	if errorKinds == nil {
		errorKinds = DefaultRetryableErrorKinds()
	}

	p := &Policy{
		maxAttempts:       cfg.MaxAttempts,
		initialDelay:      cfg.InitialDelay,
		maxDelay:          cfg.MaxDelay,
		multiplier:        cfg.BackoffMultiplier,
		strategy:          cfg.Strategy,
		timeoutPerAttempt: cfg.TimeoutPerAttempt,
		totalTimeout:      cfg.TotalTimeout,
		statusCodes:       make(map[int]struct{}, len(statusCodes)),
		errorKinds:        make(map[ErrorKind]struct{}, len(errorKinds)),
	}
	for _, code := range statusCodes {
		p.statusCodes[code] = struct{}{}
	}
	for _, kind := range errorKinds {
		p.errorKinds[kind] = struct{}{}
	}

	return p, nil
}

// DefaultPolicy returns a Policy built entirely from defaults.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(PolicyConfig{})
	if err != nil {
		// Defaults are valid by construction.
		panic(err)
	}
	return p
}

// MaxAttempts returns the configured attempt limit.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// TimeoutPerAttempt returns the per-attempt timeout (zero if disabled).
func (p *Policy) TimeoutPerAttempt() time.Duration { return p.timeoutPerAttempt }

// TotalTimeout returns the total execution budget (zero if unbounded).
func (p *Policy) TotalTimeout() time.Duration { return p.totalTimeout }

// ComputeDelay returns the wait before the attempt following attempt index
// n (zero-based). The first attempt always runs with zero delay; callers
// pass the index of the attempt that just failed.
func (p *Policy) ComputeDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	var delay time.Duration
	switch p.strategy {
	case StrategyLinear:
		delay = p.initialDelay * time.Duration(1+attempt)
	case StrategyFixed:
		delay = p.initialDelay
	default:
		scaled := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))
		if scaled > float64(p.maxDelay) {
			return p.maxDelay
		}
		delay = time.Duration(scaled)
	}

	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// IsRetryable reports whether a further attempt is allowed. attempt is the
// zero-based index of the prospective next attempt (equivalently, the number
// of attempts already made); once it reaches MaxAttempts the answer is false
// regardless of the failure. A status code of zero means no HTTP status is
// available; a nil error means no error is available. A failure that carries
// neither, such as a programming error, is never retried.
func (p *Policy) IsRetryable(attempt int, err error, statusCode int) bool {
	if attempt >= p.maxAttempts {
		return false
	}

	if statusCode > 0 {
		_, ok := p.statusCodes[statusCode]
		return ok
	}

	if err != nil {
		_, ok := p.errorKinds[Classify(err)]
		return ok
	}

	return false
}
