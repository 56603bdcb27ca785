// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrorType groups filesystem errors by how a caller should react to them
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient is busy or interrupted, worth another attempt
	ErrorTypeTransient
	// ErrorTypePermanent is permission denied or a read-only filesystem
	ErrorTypePermanent
	// ErrorTypeNotFound is a path that vanished between listing and use
	ErrorTypeNotFound
	// ErrorTypeInvalidPath is not a directory or a name too long
	ErrorTypeInvalidPath
	// ErrorTypeNoSpace is a full device or quota
	ErrorTypeNoSpace
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknown:
		return "Unknown"
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypePermanent:
		return "Permanent"
	case ErrorTypeNotFound:
		return "NotFound"
	case ErrorTypeInvalidPath:
		return "InvalidPath"
	case ErrorTypeNoSpace:
		return "NoSpace"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Original == nil {
		return e.Type.String()
	}
	return e.Original.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes a filesystem error
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	newErr := func(t ErrorType, retryable bool) *ClassifiedError {
		return &ClassifiedError{Original: err, Type: t, Retryable: retryable}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newErr(ErrorTypeNotFound, false)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EROFS):
		return newErr(ErrorTypePermanent, false)
	case errors.Is(err, syscall.ENOSPC), errors.Is(err, syscall.EDQUOT):
		return newErr(ErrorTypeNoSpace, false)
	case errors.Is(err, syscall.ENOTDIR), errors.Is(err, syscall.EISDIR),
		errors.Is(err, syscall.ENAMETOOLONG), errors.Is(err, fs.ErrInvalid):
		return newErr(ErrorTypeInvalidPath, false)
	case errors.Is(err, syscall.EAGAIN), errors.Is(err, syscall.EBUSY),
		errors.Is(err, syscall.EINTR), errors.Is(err, syscall.ETXTBSY),
		errors.Is(err, syscall.ENOTEMPTY), errors.Is(err, syscall.EMFILE),
		errors.Is(err, syscall.ENFILE):
		return newErr(ErrorTypeTransient, true)
	}

	return newErr(ErrorTypeUnknown, false)
}

// IsRetryable reports whether an error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}

// NewTransientError creates a new transient error
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypeTransient,
		Message:   message,
		Retryable: true,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypePermanent,
		Message:   message,
		Retryable: false,
	}
}
