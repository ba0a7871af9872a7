package forge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a forge failure so callers can branch without matching
// message text.
type ErrorKind int

const (
	// KindProtocol covers every non-2xx status not claimed by a more
	// specific kind, plus malformed response bodies.
	KindProtocol ErrorKind = iota
	// KindNotFound is a 404 on a path that should exist.
	KindNotFound
	// KindUnauthorized is a 401 or a 403 without rate-limit exhaustion.
	KindUnauthorized
	// KindRateLimited is a 403 whose rate-limit headers report exhaustion.
	KindRateLimited
	// KindTooLarge is a 422 on a listing: the dataset is too large to page.
	// Non-terminal; the issue-management calculator traps it and estimates.
	KindTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate limited"
	case KindTooLarge:
		return "dataset too large"
	default:
		return "protocol error"
	}
}

// Error is the structured failure returned by every client operation.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Path       string
	Detail     string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("forge: %s: HTTP %d (%s)", e.Path, e.StatusCode, e.Kind)
	if e.Kind == KindUnauthorized {
		msg += ", check that a valid token is configured"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsNotFound reports whether err is a forge 404.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsUnauthorized reports whether err is a forge 401/403 auth failure.
func IsUnauthorized(err error) bool { return hasKind(err, KindUnauthorized) }

// IsRateLimited reports whether err is a forge rate-limit rejection.
func IsRateLimited(err error) bool { return hasKind(err, KindRateLimited) }

// IsTooLarge reports whether err is the non-terminal 422 "too large to page"
// signal from a listing endpoint.
func IsTooLarge(err error) bool { return hasKind(err, KindTooLarge) }

func hasKind(err error, k ErrorKind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == k
}
