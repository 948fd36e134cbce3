// Package domainerrors carries coded errors across service boundaries.
//
// Services return these so transports can map them to a status without
// inspecting message text. Stores should return pkg/platform/sentinel errors
// instead and let services translate them.
package domainerrors

import (
	"errors"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation: malformed or out-of-bounds input, rejected before any state change.
	CodeValidation Code = "validation_error"
	// CodeInvalidTransition: the aggregate's current state does not permit the operation.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeReviewerMismatch: a decision was attempted by a reviewer other than the one reviewing.
	CodeReviewerMismatch Code = "reviewer_mismatch"
	// CodeUnknownPeriod: the payment number does not name a payable period of the mortgage.
	CodeUnknownPeriod Code = "unknown_period"
	// CodeDuplicateOrigination: a mortgage already references the application.
	CodeDuplicateOrigination Code = "duplicate_origination"
	// CodeConcurrencyConflict: the per-aggregate write race was lost; retry the whole operation.
	CodeConcurrencyConflict Code = "concurrency_conflict"

	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeUnauthorized       Code = "unauthorized"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers unless
// the code is CodeInternal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// Wrapping a nil error returns nil.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain has the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost coded error in the chain,
// or CodeInternal when the chain carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message returns the caller-facing message of the outermost coded error.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
