package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by the auth gateway
var (
	// ErrNetwork: the request did not reach the backend, timed out or the backend failed (5xx)
	ErrNetwork = errors.New("network error")
	// ErrCredential: bad email/password, mismatched confirmation, expired reset or verification token
	ErrCredential = errors.New("credential error")
	// ErrUnauthorized: missing or invalid session token on a protected call
	ErrUnauthorized = errors.New("unauthorized")
)

// MessagePasswordsDoNotMatch is reported before any request when a confirmation pair differs.
const MessagePasswordsDoNotMatch = "Passwords do not match"

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindCredential
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindCredential:
		return "credential"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindCredential:
		return ErrCredential
	case KindUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// Error is a failed auth operation. Message is human readable and is shown to the user verbatim.
type Error struct {
	Kind    Kind
	Op      string // gateway operation, e.g. "login"
	Status  int    // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if s := e.Kind.sentinel(); s != nil {
		return s.Error()
	}
	return "auth error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind so callers can use errors.Is(err, ErrUnauthorized).
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Op:      op,
		Message: fmt.Sprintf("unable to reach the server: %v", err),
		Err:     err,
	}
}

// Credential reports a rejected credential or a local validation failure.
func Credential(op, message string) *Error {
	return &Error{Kind: KindCredential, Op: op, Message: message}
}

// Unauthorized reports a missing or rejected session token.
func Unauthorized(op, message string) *Error {
	return &Error{Kind: KindUnauthorized, Op: op, Message: message}
}

// FromStatus classifies a non-2xx backend response. An empty message falls back to the status text.
func FromStatus(op string, status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	e := &Error{Op: op, Status: status, Message: message}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindUnauthorized
	case status >= http.StatusInternalServerError:
		e.Kind = KindNetwork
	default:
		e.Kind = KindCredential
	}
	return e
}

// Message returns the text to surface for err, or fallback when err carries none.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// KindOf returns the kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
