// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	executionIDKey   contextKey = "execution_id"
	stepKey          contextKey = "step"
)

// GenerateCorrelationID returns the first 8 characters of a new UUID.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a context carrying the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a freshly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID, or "" if absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a context carrying the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "" if absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithExecutionID returns a context carrying the execution being processed.
func ContextWithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionIDKey, id)
}

// ExecutionIDFromContext returns the execution ID, or "" if absent.
func ExecutionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(executionIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithStep returns a context carrying the pipeline step name.
func ContextWithStep(ctx context.Context, step string) context.Context {
	return context.WithValue(ctx, stepKey, step)
}

// StepFromContext returns the pipeline step name, or "" if absent.
func StepFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(stepKey).(string); ok {
		return s
	}
	return ""
}

// Ctx returns the global logger enriched with every ID found in ctx.
//
//	logging.Ctx(ctx).Info().Msg("Step completed")
//	// {"level":"info","execution_id":"…","step":"import_resource","message":"Step completed"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// CtxWith returns a logger context pre-populated with the IDs found in ctx,
// for callers that want to add more fields.
func CtxWith(ctx context.Context) zerolog.Context {
	logCtx := With()

	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := ExecutionIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("execution_id", id)
	}
	if step := StepFromContext(ctx); step != "" {
		logCtx = logCtx.Str("step", step)
	}

	return logCtx
}
