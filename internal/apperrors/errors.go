// Package apperrors defines the error variants that drive the ack/requeue
// decision for a consumed message. The variant is chosen at the point of
// failure, never inferred from error text downstream.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// MalformedPayloadError marks a payload that could not be parsed at all.
// The message is dropped; no record is created.
type MalformedPayloadError struct {
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: %v", e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// ValidationError marks a message that parsed but fails business validation,
// or a record the store rejected on schema grounds. The message is dropped.
type ValidationError struct {
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransientError marks a failure expected to clear on retry (store
// unreachable, dispatch hiccup). The message is requeued.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Malformed wraps err as a MalformedPayloadError.
func Malformed(err error) error {
	return &MalformedPayloadError{Err: err}
}

// Validation wraps err as a ValidationError naming the missing fields.
func Validation(missing []string, err error) error {
	return &ValidationError{Missing: missing, Err: err}
}

// Transient wraps err as a TransientError.
func Transient(err error) error {
	return &TransientError{Err: err}
}

// IsMalformed reports whether err is a MalformedPayloadError.
func IsMalformed(err error) bool {
	var e *MalformedPayloadError
	return errors.As(err, &e)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var e *TransientError
	return errors.As(err, &e)
}
