// Package errors classifies the failures vitals reports to the user. Each
// error carries a code saying which layer failed, so the CLI can decide
// whether to keep sampling or refuse to start.
package errors

import (
	"errors"
	"strings"
)

const (
	// ErrConfig marks a flag, file or environment value vitals cannot honor.
	ErrConfig = "CONFIG"
	// ErrSource marks a sensor, tool or counter that produced no reading.
	// These stay inside the sampler; a tick records the value as absent.
	ErrSource = "SOURCE"
	// ErrStore marks a failed open, write or query on the measurements file.
	ErrStore = "STORE"
	// ErrSchema marks a store whose table could not be created or upgraded.
	ErrSchema = "SCHEMA"
)

// Error is a coded failure. Message says what failed, Cause why, and
// Suggestion what the operator can do about it.
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

func New(code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion}
}

// Wrap records err as a source failure.
func Wrap(err error, message string) *Error {
	return WrapWithCode(err, ErrSource, message, "")
}

func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

// Error renders the message on the first line, marked with ✗, followed by
// indented cause and suggestion paragraphs when present.
func (e *Error) Error() string {
	parts := []string{"✗ " + e.Message}
	if e.Cause != nil {
		parts = append(parts, "  "+e.Cause.Error())
	}
	if e.Suggestion != "" {
		parts = append(parts, "  "+e.Suggestion)
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func (e *Error) Unwrap() error { return e.Cause }

// IsCode reports whether any error in err's chain is an *Error with code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
