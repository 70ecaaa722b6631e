package supplier

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a supplier-side failure. The kind determines how far
// the failure propagates: configuration and fetch/parse kinds abort the
// supplier's run, record-level kinds are recorded and skipped, push kinds
// are retried once at single-record granularity.
type ErrorKind string

const (
	KindConfiguration  ErrorKind = "configuration"
	KindTransport      ErrorKind = "transport"
	KindAuthentication ErrorKind = "authentication"
	KindRateLimit      ErrorKind = "rate_limit"
	KindParse          ErrorKind = "parse"
	KindEmptyFile      ErrorKind = "empty_file"
	KindNotFound       ErrorKind = "not_found"
	KindValidation     ErrorKind = "validation"
	KindMapping        ErrorKind = "mapping"
	KindExternalPush   ErrorKind = "external_push"
)

// Error is the typed error for every supplier-facing failure.
type Error struct {
	Kind     ErrorKind
	Supplier string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Supplier != "" {
		return fmt.Sprintf("%s: %s: %s", e.Supplier, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errf creates a typed error with a formatted message.
func Errf(kind ErrorKind, supplierCode, format string, args ...any) *Error {
	return &Error{Kind: kind, Supplier: supplierCode, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr wraps an underlying error with a kind and supplier code.
func WrapErr(kind ErrorKind, supplierCode string, err error) *Error {
	return &Error{Kind: kind, Supplier: supplierCode, Err: err}
}

// IsKind reports whether err (or anything it wraps) is a supplier error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// KindOf returns the kind of err, or "" when err carries no supplier kind.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Fatal reports whether the kind aborts the whole supplier run rather than
// a single record.
func (k ErrorKind) Fatal() bool {
	switch k {
	case KindConfiguration, KindTransport, KindAuthentication, KindRateLimit,
		KindParse, KindEmptyFile, KindNotFound:
		return true
	default:
		return false
	}
}
