// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package models

import (
	"errors"
	"fmt"
)

// Category groups errors by how the caller should react to them.
type Category string

const (
	// CategoryValidation means the input is structurally wrong. Never retried.
	CategoryValidation Category = "validation"

	// CategoryQuota means the system is at capacity. Retry later.
	CategoryQuota Category = "quota"

	// CategoryExternalProcess means the conversion tool failed.
	CategoryExternalProcess Category = "external_process"

	// CategoryPipeline covers step sequencing and persistence failures.
	CategoryPipeline Category = "pipeline"

	// CategoryNotFound means a referenced execution or resource does not exist.
	CategoryNotFound Category = "not_found"

	// CategoryForbidden means the caller may not perform the action.
	CategoryForbidden Category = "forbidden"

	// CategoryCancelled means the execution was cancelled by a caller.
	CategoryCancelled Category = "cancelled"
)

// Error is the structured error every caller-facing failure is reported as.
type Error struct {
	Category   Category
	Code       string
	Message    string
	FailedStep string
	Err        error

	kind *Error
}

// Sentinel errors. Compare with errors.Is.
var (
	ErrInvalidFileSet = &Error{
		Category: CategoryValidation,
		Code:     "INVALID_FILE_SET",
		Message:  "invalid file set",
	}

	ErrInvalidShapeFile = &Error{
		Category: CategoryValidation,
		Code:     "INVALID_SHAPE_FILE",
		Message:  "invalid shapefile",
		kind:     ErrInvalidFileSet,
	}

	ErrInvalidParams = &Error{
		Category: CategoryValidation,
		Code:     "INVALID_PARAMS",
		Message:  "invalid request parameters",
	}

	ErrUnsupportedAction = &Error{
		Category: CategoryValidation,
		Code:     "UNSUPPORTED_ACTION",
		Message:  "action not supported",
	}

	ErrNoHandler = &Error{
		Category: CategoryValidation,
		Code:     "NO_HANDLER",
		Message:  "no handler can process the input",
	}

	ErrParallelismLimit = &Error{
		Category: CategoryQuota,
		Code:     "UPLOAD_PARALLELISM_LIMIT",
		Message:  "too many concurrent uploads, try later",
	}

	ErrConversionFailed = &Error{
		Category: CategoryExternalProcess,
		Code:     "CONVERSION_FAILED",
		Message:  "conversion failed",
	}

	ErrStepFailed = &Error{
		Category: CategoryPipeline,
		Code:     "STEP_FAILED",
		Message:  "pipeline step failed",
	}

	ErrAlternateTaken = &Error{
		Category: CategoryPipeline,
		Code:     "ALTERNATE_TAKEN",
		Message:  "layer name already reserved",
	}

	ErrExecutionFinished = &Error{
		Category: CategoryPipeline,
		Code:     "EXECUTION_FINISHED",
		Message:  "execution already finished",
	}

	ErrExecutionNotFound = &Error{
		Category: CategoryNotFound,
		Code:     "EXECUTION_NOT_FOUND",
		Message:  "execution not found",
	}

	ErrResourceNotFound = &Error{
		Category: CategoryNotFound,
		Code:     "RESOURCE_NOT_FOUND",
		Message:  "resource not found",
	}

	ErrForbidden = &Error{
		Category: CategoryForbidden,
		Code:     "FORBIDDEN",
		Message:  "action not permitted",
	}

	ErrCancelled = &Error{
		Category: CategoryCancelled,
		Code:     "CANCELLED",
		Message:  "execution cancelled",
	}
)

// Errorf derives a new error from the sentinel kind with a formatted message.
func Errorf(kind *Error, format string, args ...any) *Error {
	return &Error{
		Category: kind.Category,
		Code:     kind.Code,
		Message:  fmt.Sprintf(format, args...),
		kind:     kind,
	}
}

// Wrap derives a new error from the sentinel kind that wraps cause.
func Wrap(kind *Error, cause error, message string) *Error {
	return &Error{
		Category: kind.Category,
		Code:     kind.Code,
		Message:  message,
		Err:      cause,
		kind:     kind,
	}
}

// WithStep returns a copy of e attributed to the named pipeline step.
func (e *Error) WithStep(step string) *Error {
	c := *e
	c.FailedStep = step
	c.kind = e
	return &c
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.kind != nil {
		msg = e.kind.Message
	}
	if e.FailedStep != "" {
		msg = "step " + e.FailedStep + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is e itself or a sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	for k := e; k != nil; k = k.kind {
		if k == t {
			return true
		}
	}
	return false
}

// Retryable reports whether the same request may succeed later without changes.
func (e *Error) Retryable() bool {
	return e.Category == CategoryQuota
}

// CategoryOf returns the category of err, or CategoryPipeline for errors
// outside the taxonomy.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryPipeline
}

// ErrorDetail is the persisted and rendered form of an error.
type ErrorDetail struct {
	Category   Category `json:"category"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	FailedStep string   `json:"failed_step,omitempty"`
}

// DetailOf converts err into an ErrorDetail. step is used when err does not
// already carry a failed step.
func DetailOf(err error, step string) *ErrorDetail {
	if err == nil {
		return nil
	}
	d := &ErrorDetail{
		Category:   CategoryPipeline,
		Code:       ErrStepFailed.Code,
		Message:    err.Error(),
		FailedStep: step,
	}
	var e *Error
	if errors.As(err, &e) {
		d.Category = e.Category
		d.Code = e.Code
		if e.FailedStep != "" {
			d.FailedStep = e.FailedStep
		}
		c := *e
		c.FailedStep = ""
		d.Message = c.Error()
	}
	return d
}
