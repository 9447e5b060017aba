package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies source and computation failures. Primary quantities
// (cost, runtime, emissions inputs) never recover from these by substituting
// an estimate; they propagate as absent values plus a warning.
type ErrorKind string

const (
	ErrMissingCredential        ErrorKind = "missing_credential"
	ErrSourceUnavailable        ErrorKind = "source_unavailable"
	ErrRateLimited              ErrorKind = "rate_limited"
	ErrMalformedResponse        ErrorKind = "malformed_response"
	ErrInsufficientData         ErrorKind = "insufficient_data"
	ErrValidationWindowTooShort ErrorKind = "validation_window_too_short"
)

// SourceError wraps a failure with its kind and originating source name.
type SourceError struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is matches on kind so callers can write errors.Is(err, &SourceError{Kind: ...}).
func (e *SourceError) Is(target error) bool {
	var se *SourceError
	if !errors.As(target, &se) {
		return false
	}
	return se.Kind == e.Kind && (se.Source == "" || se.Source == e.Source)
}

func NewSourceError(kind ErrorKind, source string, err error) *SourceError {
	return &SourceError{Kind: kind, Source: source, Err: err}
}

// KindOf extracts the ErrorKind from an error chain, or "" if none.
func KindOf(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
