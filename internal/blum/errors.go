package blum

import (
	"errors"
	"fmt"
)

var (
	ErrTransport         = errors.New("transport error")
	ErrRemote            = errors.New("remote error")
	ErrSessionInvalid    = errors.New("session invalid")
	ErrRefresh           = errors.New("refresh failed")
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is a non-2xx answer from an endpoint
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, truncate(e.Body, 200))
}

func (e *StatusError) Unwrap() error {
	return ErrRemote
}

// Kind returns a short label for the error class, used in logs and metrics
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionInvalid):
		return "session_invalid"
	case errors.Is(err, ErrRefresh):
		return "refresh"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, ErrRemote):
		return "remote"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
