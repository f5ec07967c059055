// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	// Success indicates whether the request was successful
	Success bool `json:"success"`

	// Data contains the response payload (null on error)
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success)
	Error *APIError `json:"error,omitempty"`

	// Meta contains optional metadata about the response
	Meta *APIMeta `json:"meta,omitempty"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Category groups codes by how the client should react
	Category models.Category `json:"category,omitempty"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// FailedStep names the pipeline step an execution failed in
	FailedStep string `json:"failed_step,omitempty"`

	// Details contains additional error details (optional)
	Details interface{} `json:"details,omitempty"`

	// RequestID is the request ID for tracing
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta contains optional response metadata.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Count      *int      `json:"count,omitempty"`
}

// Error codes produced by the HTTP layer itself. Domain failures use the
// codes of models.Error.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ResponseWriter provides methods for writing standardized API responses.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a new response writer.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{
		w:         w,
		r:         r,
		startTime: time.Now(),
	}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now(),
		DurationMs: time.Since(rw.startTime).Milliseconds(),
	}
}

// Success writes a 200 response with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: rw.meta()})
}

// List writes a 200 response for a collection and records its size.
func (rw *ResponseWriter) List(data interface{}, count int) {
	meta := rw.meta()
	meta.Count = &count
	rw.writeJSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta})
}

// Accepted writes a 202 response for work that continues asynchronously.
func (rw *ResponseWriter) Accepted(data interface{}) {
	rw.writeJSON(http.StatusAccepted, APIResponse{Success: true, Data: data, Meta: rw.meta()})
}

// Error writes an error response with the given status code.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.writeError(statusCode, &APIError{Code: code, Message: message})
}

func (rw *ResponseWriter) writeError(statusCode int, apiErr *APIError) {
	meta := rw.meta()
	apiErr.RequestID = meta.RequestID
	rw.writeJSON(statusCode, APIResponse{Success: false, Error: apiErr, Meta: meta})
}

// BadRequest writes a 400 Bad Request error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Forbidden writes a 403 Forbidden error.
func (rw *ResponseWriter) Forbidden(message string) {
	rw.writeError(http.StatusForbidden, &APIError{
		Code:     ErrCodeForbidden,
		Category: models.CategoryForbidden,
		Message:  message,
	})
}

// NotFound writes a 404 Not Found error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.writeError(http.StatusNotFound, &APIError{
		Code:     ErrCodeNotFound,
		Category: models.CategoryNotFound,
		Message:  message,
	})
}

// PayloadTooLarge writes a 413 error.
func (rw *ResponseWriter) PayloadTooLarge(message string) {
	rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, message)
}

// InternalError writes a 500 Internal Server Error.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable writes a 503 Service Unavailable error.
func (rw *ResponseWriter) ServiceUnavailable(message string, details interface{}) {
	rw.writeError(http.StatusServiceUnavailable, &APIError{
		Code:    ErrCodeServiceUnavailable,
		Message: message,
		Details: details,
	})
}

// ModelError renders err using its category. Errors outside the taxonomy
// are logged and reported as an opaque 500.
func (rw *ResponseWriter) ModelError(err error) {
	var me *models.Error
	if !errors.As(err, &me) {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Unhandled API error")
		rw.InternalError("internal error")
		return
	}

	detail := models.DetailOf(err, "")
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(rw.r.Context()).Error().Err(err).Str("code", detail.Code).Msg("API request failed")
	}
	rw.writeError(status, &APIError{
		Code:       detail.Code,
		Category:   detail.Category,
		Message:    detail.Message,
		FailedStep: detail.FailedStep,
	})
}

// StatusForError maps an error to its HTTP status code.
func StatusForError(err error) int {
	if errors.Is(err, models.ErrExecutionFinished) {
		return http.StatusConflict
	}
	switch models.CategoryOf(err) {
	case models.CategoryValidation:
		return http.StatusBadRequest
	case models.CategoryQuota:
		return http.StatusTooManyRequests
	case models.CategoryNotFound:
		return http.StatusNotFound
	case models.CategoryForbidden:
		return http.StatusForbidden
	case models.CategoryCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes JSON response with proper headers.
func (rw *ResponseWriter) writeJSON(statusCode int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
