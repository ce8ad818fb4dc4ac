// Package errors defines relaystat's structured error type. Errors that
// reach the user carry a code for machine output, the failure, its cause
// and what to do about it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes, one per subsystem that can stop relaystat.
const (
	ErrConfig  = "CONFIG"  // config file, environment or flags
	ErrControl = "CONTROL" // control port session
	ErrDisplay = "DISPLAY" // display driver initialization
	ErrRender  = "RENDER"  // drawing or flushing a frame
	ErrCheck   = "CHECK"   // a doctor check failed
)

// Error is printed as:
//
//	✗ <message>
//
//	  <cause>
//
//	  <suggestion>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates an error with no underlying cause.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode attaches code, message and suggestion to err.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, "\n  %s\n", e.Cause.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  %s\n", e.Suggestion)
	}
	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
