package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an [Error] so callers can branch on it without inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidLink
	KindInvalidRequest
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindTimeout
	KindUpstream
	KindConfiguration
	KindDecryption
	KindCanceled
)

// StatusClientClosedRequest is reported for work abandoned by its caller.
const StatusClientClosedRequest = 499

func (k Kind) String() string {
	switch k {
	case KindInvalidLink:
		return "InvalidLink"
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindRateLimited:
		return "RateLimited"
	case KindTimeout:
		return "Timeout"
	case KindUpstream:
		return "UpstreamError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindDecryption:
		return "DecryptionError"
	case KindCanceled:
		return "Canceled"
	default:
		return "InternalError"
	}
}

// Status returns the HTTP status surfaced for errors of this kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidLink, KindInvalidRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindUpstream:
		return http.StatusBadGateway
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the typed error returned across provider boundaries.
//
// SafeMessage is suitable for direct display; Err keeps the underlying cause for logs and [errors.Is].
type Error struct {
	Kind        Kind
	Status      int
	SafeMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.SafeMessage, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.SafeMessage)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so sentinels match any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.SafeMessage == "" && t.Err == nil
}

func sentinel(k Kind) *Error { return &Error{Kind: k, Status: k.Status()} }

// Typed error sentinels, usable with [errors.Is]
var (
	ErrInvalidLink    = sentinel(KindInvalidLink)
	ErrInvalidRequest = sentinel(KindInvalidRequest)
	ErrNotFound       = sentinel(KindNotFound)
	ErrUnauthorized   = sentinel(KindUnauthorized)
	ErrForbidden      = sentinel(KindForbidden)
	ErrRateLimited    = sentinel(KindRateLimited)
	ErrTimeout        = sentinel(KindTimeout)
	ErrUpstream       = sentinel(KindUpstream)
	ErrConfiguration  = sentinel(KindConfiguration)
	ErrDecryption     = sentinel(KindDecryption)
	ErrCanceled       = sentinel(KindCanceled)
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// NewError builds an [Error] of kind k with a user-safe message and an optional cause.
func NewError(k Kind, safe string, cause error) *Error {
	return &Error{Kind: k, Status: k.Status(), SafeMessage: safe, Err: cause}
}

// Errorf builds an [Error] whose safe message is formatted from args.
func Errorf(k Kind, format string, args ...any) *Error {
	return NewError(k, fmt.Sprintf(format, args...), nil)
}

// ContextError types a context error ending op: a cancellation is
// [KindCanceled], anything else a [KindTimeout].
func ContextError(err error, op string) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(KindCanceled, op+" was canceled", err)
	}
	return NewError(KindTimeout, op+" timed out", err)
}

// KindOf returns the [Kind] of the first [Error] in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status for err, 500 for untyped errors.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		if e.Status != 0 {
			return e.Status
		}
		return e.Kind.Status()
	}
	return http.StatusInternalServerError
}

// SafeMessageOf returns a message safe to show to end users.
func SafeMessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.SafeMessage != "" {
		return e.SafeMessage
	}
	return "internal server error"
}
