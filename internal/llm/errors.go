package llm

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strings"
)

// status5xx matches HTTP 5xx status codes quoted in provider error
// strings; langchaingo surfaces upstream failures as text.
var status5xx = regexp.MustCompile(`\b5\d\d\b`)

// retryable reports whether an error from the external service is
// worth another attempt. Timeouts, rate limits, and server-side 5xx
// failures are transient; auth failures and malformed requests are
// not, and retrying them burns the budget for nothing.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "api key"),
		strings.Contains(msg, "400"), strings.Contains(msg, "bad request"):
		return false
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return true
	case status5xx.MatchString(msg),
		strings.Contains(msg, "internal server error"),
		strings.Contains(msg, "bad gateway"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"):
		return true
	}

	// Unknown failures are treated as permanent: the record degrades
	// immediately instead of stalling the batch on hopeless retries.
	return false
}
