// Package fault defines the error taxonomy shared across the translation
// pipeline, retrieval layer, and HTTP surface. Errors carry a Kind that maps
// onto a user-visible category plus a human-readable detail string.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// InvalidInput rejects bad uploads or language codes before any
	// external call is made.
	InvalidInput Kind = "invalid_input"
	// ProviderUnavailable covers transport failures talking to the
	// translation provider on submit, poll or fetch.
	ProviderUnavailable Kind = "provider_unavailable"
	// Timeout means polling exceeded the configured bound.
	Timeout Kind = "timeout"
	// StorageWriteFailed covers object store put failures.
	StorageWriteFailed Kind = "storage_write_failed"
	// StorageReadFailed covers object store get failures.
	StorageReadFailed Kind = "storage_read_failed"
	// NotFound covers missing rows and owner mismatches alike, so
	// existence is never leaked across identities.
	NotFound Kind = "not_found"
	// Unauthorized means the identity token is missing or invalid.
	Unauthorized Kind = "unauthorized"
	// Inconsistent means blobs were stored but the metadata record could
	// not be created. Not automatically repaired.
	Inconsistent Kind = "inconsistent"
)

// Error is a kinded error. The zero Kind is never used.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a kinded error with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf builds a kinded error with a formatted detail message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and detail to an underlying error.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf extracts the Kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
