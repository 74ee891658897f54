package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies errors by how the host must react to them.
type Type int

const (
	// TypeRecoverable errors are handled where they occur; processing continues.
	TypeRecoverable Type = iota
	// TypeFatal errors block the scheduler from running at all.
	TypeFatal
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeRecoverable:
		return "ERROR_TYPE_RECOVERABLE"
	case TypeFatal:
		return "ERROR_TYPE_FATAL"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier for the failure kind.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidCharacter indicates a secret with characters outside base32.
	CodeInvalidCharacter
	// CodeEmptyInput indicates a secret with nothing to decode.
	CodeEmptyInput
	// CodeEmptySecret indicates a compute request without key material.
	CodeEmptySecret
	// CodeStorageUnavailable indicates the secrets source could not be read.
	CodeStorageUnavailable
	// CodeClockUnsynchronized indicates the wall clock was never set.
	CodeClockUnsynchronized
	// CodeInvalidConfig indicates unusable configuration.
	CodeInvalidConfig
	// CodeNotReady indicates no code set has been published yet.
	CodeNotReady
)

// String returns the string representation of the error code.
func (c Code) String() string {
	switch c {
	case CodeInvalidCharacter:
		return "ERROR_CODE_INVALID_CHARACTER"
	case CodeEmptyInput:
		return "ERROR_CODE_EMPTY_INPUT"
	case CodeEmptySecret:
		return "ERROR_CODE_EMPTY_SECRET"
	case CodeStorageUnavailable:
		return "ERROR_CODE_STORAGE_UNAVAILABLE"
	case CodeClockUnsynchronized:
		return "ERROR_CODE_CLOCK_UNSYNCHRONIZED"
	case CodeInvalidConfig:
		return "ERROR_CODE_INVALID_CONFIG"
	case CodeNotReady:
		return "ERROR_CODE_NOT_READY"
	case CodeInternal:
		return "ERROR_CODE_INTERNAL"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// It wraps an underlying error while also carrying a short message, a
// reaction type, and a stable error code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.msg != "" && e.err != nil {
		return e.msg + ": " + e.err.Error()
	}

	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	if e.errType == TypeFatal {
		return "Fatal error"
	}

	return "Recoverable error"
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the short error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the reaction type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidCharacter, CodeEmptyInput, CodeEmptySecret:
		return http.StatusUnprocessableEntity
	case CodeStorageUnavailable, CodeClockUnsynchronized, CodeNotReady:
		return http.StatusServiceUnavailable
	case CodeInvalidConfig, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func new(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewRecoverable creates a recoverable error with the provided cause and code.
func NewRecoverable(err error, msg string, code Code) error {
	return new(err, msg, TypeRecoverable, code)
}

// NewFatal creates a fatal error with the provided cause and code.
func NewFatal(err error, msg string, code Code) error {
	return new(err, msg, TypeFatal, code)
}

// NewStorageUnavailable creates a fatal error for an unreadable secrets source.
func NewStorageUnavailable(err error) error {
	return new(err, "secrets storage unavailable", TypeFatal, CodeStorageUnavailable)
}

// NewClockUnsynchronized creates a fatal error for an unset wall clock.
func NewClockUnsynchronized(err error) error {
	return new(err, "wall clock not synchronized", TypeFatal, CodeClockUnsynchronized)
}

// NewInvalidConfig creates a fatal error for unusable configuration.
func NewInvalidConfig(err error) error {
	return new(err, "invalid configuration", TypeFatal, CodeInvalidConfig)
}

// IsFatal reports whether err, or any error it wraps, is a fatal *Error.
func IsFatal(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Type() == TypeFatal
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Code()
	}

	return CodeInternal
}
