// Package apperr defines the failure taxonomy shared by the booking pipeline.
// Every failure carries a machine-readable code, a human-readable message and
// optional offending data.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindAmbiguousIntent    Kind = "AMBIGUOUS_INTENT"
	KindMissingEntity      Kind = "MISSING_ENTITY"
	KindTemporalResolution Kind = "TEMPORAL_RESOLUTION"
	KindValidation         Kind = "VALIDATION_ERROR"
	KindConflict           Kind = "BOOKING_CONFLICT"
	KindNotFound           Kind = "BOOKING_NOT_FOUND"
	KindOracleUnavailable  Kind = "ORACLE_UNAVAILABLE"
	KindInternal           Kind = "INTERNAL"
)

// Sentinels usable with errors.Is.
var (
	ErrAmbiguousIntent    = &Error{Kind: KindAmbiguousIntent}
	ErrMissingEntity      = &Error{Kind: KindMissingEntity}
	ErrTemporalResolution = &Error{Kind: KindTemporalResolution}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrOracleUnavailable  = &Error{Kind: KindOracleUnavailable}
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Code returns the machine-readable code.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t == e || (t.Kind == e.Kind && t.Message == "")
}

// With returns a copy of e with an extra detail attached.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func AmbiguousIntent(format string, args ...any) *Error {
	return newf(KindAmbiguousIntent, format, args...)
}

func MissingEntity(entity, intent string) *Error {
	return newf(KindMissingEntity, "%s is required for %s", entity, intent).
		With("entity", entity).With("intent", intent)
}

func TemporalResolution(format string, args ...any) *Error {
	return newf(KindTemporalResolution, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

// Conflict reports the booking that already holds the slot.
func Conflict(existingID, message string) *Error {
	return (&Error{Kind: KindConflict, Message: message}).With("existing_booking_id", existingID)
}

func NotFound(id string) *Error {
	return newf(KindNotFound, "booking %s not found", id).With("booking_id", id)
}

// OracleUnavailable wraps a failed classifier or NER call.
func OracleUnavailable(oracle string, cause error) *Error {
	return (&Error{
		Kind:    KindOracleUnavailable,
		Message: fmt.Sprintf("%s oracle unavailable", oracle),
		cause:   cause,
	}).With("oracle", oracle)
}

// From classifies any error, mapping unknown ones to KindInternal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: "internal error", cause: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
