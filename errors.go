package apptoken

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies the errors returned while issuing and revoking tokens.
type ErrorKind string

// Enumeration of error kinds.
const (
	InvalidConfiguration ErrorKind = "invalid configuration"
	InvalidCredential    ErrorKind = "invalid credential"
	InvalidArgument      ErrorKind = "invalid argument"
	SigningFailure       ErrorKind = "signing failure"
	UninitializedAccess  ErrorKind = "uninitialized access"
	ConnectionFailure    ErrorKind = "connection failure"
	InstallationNotFound ErrorKind = "installation not found"
	TokenIssuanceFailure ErrorKind = "token issuance failure"
	RevocationFailure    ErrorKind = "revocation failure"
	Timeout              ErrorKind = "timeout"
)

// Sentinels that can be matched with errors.Is against any *Error of the same kind.
var (
	ErrInvalidConfiguration = &Error{Kind: InvalidConfiguration}
	ErrInvalidCredential    = &Error{Kind: InvalidCredential}
	ErrInvalidArgument      = &Error{Kind: InvalidArgument}
	ErrSigningFailure       = &Error{Kind: SigningFailure}
	ErrUninitializedAccess  = &Error{Kind: UninitializedAccess}
	ErrConnectionFailure    = &Error{Kind: ConnectionFailure}
	ErrInstallationNotFound = &Error{Kind: InstallationNotFound}
	ErrTokenIssuanceFailure = &Error{Kind: TokenIssuanceFailure}
	ErrRevocationFailure    = &Error{Kind: RevocationFailure}
	ErrTimeout              = &Error{Kind: Timeout}
)

// Error is the error type returned by this module. Upstream details are
// kept for diagnostics and never include credentials.
type Error struct {
	Kind    ErrorKind
	Message string

	// StatusCode is the upstream HTTP status, or 0 when no response was received.
	StatusCode int

	// URL is the upstream request URL.
	URL string

	// RequestID is the value of the X-GitHub-Request-Id response header.
	RequestID string

	// Err is the underlying cause, if any.
	Err error
}

// Errorf returns an *Error of the given kind with a formatted message.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
