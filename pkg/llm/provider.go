package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Provider is a completion service client. One call, one response; failures
// surface as *Error so callers can distinguish timeouts and rate limits.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrorKind classifies a completion failure.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindOther       ErrorKind = "other"
)

// Error is a typed completion service error.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a completion timeout.
func IsTimeout(err error) bool {
	var provErr *Error
	return errors.As(err, &provErr) && provErr.Kind == KindTimeout
}

// IsRateLimited reports whether err is a completion rate limit.
func IsRateLimited(err error) bool {
	var provErr *Error
	return errors.As(err, &provErr) && provErr.Kind == KindRateLimited
}

// transportError wraps a failed HTTP round trip, classifying deadline and
// network timeouts as KindTimeout.
func transportError(provider string, err error) *Error {
	kind := KindOther
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}
	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  "request failed",
		Err:      err,
	}
}

// statusError maps a non-2xx HTTP status to a typed error.
func statusError(provider string, status int, body string) *Error {
	kind := KindOther
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		kind = KindTimeout
	}
	return &Error{
		Kind:     kind,
		Provider: provider,
		Status:   status,
		Message:  body,
	}
}
