package services

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a business-rule rejection. API handlers map these to
// HTTP statuses; the core never panics or throws across the boundary.
type ErrorCode string

const (
	ErrNotFound          ErrorCode = "not_found"
	ErrInvalidState      ErrorCode = "invalid_state"
	ErrUnauthorized      ErrorCode = "unauthorized"
	ErrDuplicateResponse ErrorCode = "duplicate_response"
	ErrNotYetOpen        ErrorCode = "not_yet_open"
	ErrValidation        ErrorCode = "validation"
)

// RaceError is the discriminated failure every race operation returns on a
// failed precondition. The reason is user-visible: tier-delay and
// race-timing rejections happen routinely during normal use and the UI
// surfaces them directly.
type RaceError struct {
	Code   ErrorCode
	Reason string
}

func (e *RaceError) Error() string { return e.Reason }

func raceErrorf(code ErrorCode, format string, args ...interface{}) *RaceError {
	return &RaceError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf returns the ErrorCode carried by err, or "" for plain errors
// (transport/storage failures the caller may choose to retry).
func CodeOf(err error) ErrorCode {
	var re *RaceError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsCode reports whether err carries the given business-rule code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
