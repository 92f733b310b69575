package weather

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery   = errors.New("city query is empty")
	ErrInvalidDays  = errors.New("days must be a positive integer")
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError means the geocoding source had no match for Query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("city %q not found", e.Query)
}

// TransportError covers network failures and non-success HTTP statuses.
// StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Temporary reports whether the failure is worth retrying (rate limits and server errors).
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// MalformedResponseError means the upstream broke its response contract.
type MalformedResponseError struct {
	Op     string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Reason)
}

// Malformed builds a MalformedResponseError with a formatted reason.
func Malformed(op, format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Error kinds as reported by Kind.
const (
	KindNone      = ""
	KindNotFound  = "not_found"
	KindTransport = "transport"
	KindMalformed = "malformed"
	KindInvalid   = "invalid"
	KindCanceled  = "canceled"
	KindInternal  = "internal"
)

// Kind classifies err for logging, metrics and status mapping. A cancelled
// or expired caller context wins over any transport error wrapping it.
func Kind(err error) string {
	if err == nil {
		return KindNone
	}
	var nf *NotFoundError
	var te *TransportError
	var me *MalformedResponseError
	switch {
	case errors.As(err, &nf):
		return KindNotFound
	case errors.As(err, &me):
		return KindMalformed
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidDays), errors.Is(err, ErrInvalidInput):
		return KindInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindInternal
	}
}
