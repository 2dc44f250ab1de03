package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"
)

// ErrorKind buckets an error into the categories the retry policy can act
// on. Classification is best-effort: anything that does not look like a
// timeout or a network condition is KindOther and is never retried by the
// default policy.
type ErrorKind string

// Error kinds recognized by Classify.
const (
	// KindTimeout covers deadline and i/o timeout errors, including a
	// per-attempt timeout imposed by the Executor.
	KindTimeout ErrorKind = "timeout"

	// KindConnect covers failures to establish a connection at all.
	KindConnect ErrorKind = "connect"

	// KindNetwork covers connections that broke after being established,
	// plus TLS and DNS trouble.
	KindNetwork ErrorKind = "network"

	// KindOther is everything else.
	KindOther ErrorKind = "other"
)

// statusCarrier is implemented by errors that carry an HTTP status code,
// such as the API error types in the http package.
type statusCarrier interface {
	HTTPStatus() int
}

// StatusCode extracts an HTTP status code from an error chain.
// Returns zero when no status is available.
func StatusCode(err error) int {
	var sc statusCarrier
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// retryAfterCarrier is implemented by errors that carry a server-provided
// wait hint, such as a 429 response's Retry-After header.
type retryAfterCarrier interface {
	RetryAfterHint() time.Duration
}

// RetryAfter extracts a server-provided wait hint from an error chain.
// Returns zero when no hint is available.
func RetryAfter(err error) time.Duration {
	var rc retryAfterCarrier
	if errors.As(err, &rc) {
		return rc.RetryAfterHint()
	}
	return 0
}

// Classify determines the ErrorKind of an error.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnect
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnect
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return KindConnect
		}
		return KindNetwork
	}

	// Fall back to message matching for errors that lose their type
	// through wrapping (url.Error strings, TLS failures, etc.).
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial tcp"):
		return KindConnect
	case strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "tls") ||
		strings.Contains(msg, "x509"):
		return KindNetwork
	}

	return KindOther
}
