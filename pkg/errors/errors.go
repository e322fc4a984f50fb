// Package errors defines the closed error taxonomy used across the service.
// Callers branch on the error kind, never on message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure for handling and response mapping.
type Kind string

const (
	// KindTransport covers network or protocol failures reaching the cache
	// store or the upstream API.
	KindTransport Kind = "TRANSPORT"
	// KindDecode covers malformed payloads. Upstream-side decode failures
	// surface with this kind; cache-side decode failures never surface (the
	// entry is deleted and the read degrades to a miss).
	KindDecode Kind = "DECODE"
	// KindPartialTask marks a failure of one of several concurrently
	// dispatched subtasks.
	KindPartialTask Kind = "PARTIAL_TASK"

	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindInternal   Kind = "INTERNAL"
)

// AppError is the single error type used by the service.
type AppError struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "cache.LookupMany"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for each kind.

func Transport(op, message string, err error) error {
	return &AppError{Kind: KindTransport, Op: op, Message: message, Err: err}
}

func Decode(op, message string, err error) error {
	return &AppError{Kind: KindDecode, Op: op, Message: message, Err: err}
}

func PartialTask(op, message string, err error) error {
	return &AppError{Kind: KindPartialTask, Op: op, Message: message, Err: err}
}

func Validation(message string) error {
	return &AppError{Kind: KindValidation, Message: message}
}

func NotFound(message string) error {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Internal(message string, err error) error {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// Wrap adds context to an error, preserving its kind when it is already an
// AppError and classifying it as internal otherwise.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Kind:    appErr.Kind,
			Op:      appErr.Op,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsTransport(err error) bool   { return KindOf(err) == KindTransport }
func IsDecode(err error) bool      { return KindOf(err) == KindDecode }
func IsPartialTask(err error) bool { return KindOf(err) == KindPartialTask }
func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
