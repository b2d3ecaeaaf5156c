// Package apperror defines the error taxonomy shared by the console: local validation
// failures and the remote failures surfaced by the API client.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a client side, field level failure. It never reaches the API.
	KindValidation
	// KindUnauthorized means the session is missing, invalid or expired.
	KindUnauthorized
	// KindNotFound is returned for a detail fetch of a stale or deleted id.
	KindNotFound
	// KindConflict is returned when the API rejects a duplicate, e.g. an existing username.
	KindConflict
	// KindBadRequest covers the remaining 4xx answers.
	KindBadRequest
	// KindServer covers 5xx answers.
	KindServer
	// KindNetwork is a transport failure: no HTTP answer was received.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is. Matching is by Kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrServer       = &Error{Kind: KindServer}
	ErrNetwork      = &Error{Kind: KindNetwork}
)

// Error is the console's error value.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// Fields holds per-field messages for KindValidation.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + ": " + e.Fields[name]
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// FromStatus maps an HTTP status code and API message onto an Error.
// It returns nil for 2xx and 3xx codes.
func FromStatus(status int, message string) error {
	if status < http.StatusBadRequest {
		return nil
	}

	kind := KindBadRequest
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindBadRequest
	case status >= http.StatusInternalServerError:
		kind = KindServer
	}

	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// Network wraps a transport failure.
func Network(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
}

// Validation builds a KindValidation error from field messages.
// It returns nil when fields is empty.
func Validation(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsUnauthorized reports whether err should force the user back to the login screen.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
