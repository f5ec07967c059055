// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission Metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_submissions_total",
			Help: "Total number of import requests by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: "accepted", "validation", "quota", "forbidden", "error"
	)

	ParallelismRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_parallelism_rejections_total",
			Help: "Total number of requests rejected by the parallelism limit",
		},
		[]string{"scope"},
	)

	// Execution Metrics
	ExecutionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "import_executions_active",
			Help: "Current number of executions that are created or running",
		},
	)

	ExecutionsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_executions_finished_total",
			Help: "Total number of executions that reached a terminal status",
		},
		[]string{"action", "status"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "import_step_duration_seconds",
			Help:    "Duration of pipeline steps in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300, 900}, // conversions can take minutes
		},
		[]string{"step", "outcome"},
	)

	TasksSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_tasks_skipped_total",
			Help: "Total number of redelivered or out-of-order tasks ignored",
		},
		[]string{"reason"}, // "terminal", "completed", "out_of_order", "in_progress"
	)

	// Conversion Process Metrics
	ProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ogr_process_duration_seconds",
			Help:    "Duration of conversion tool invocations in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800},
		},
		[]string{"tool"},
	)

	ProcessExits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ogr_process_exits_total",
			Help: "Total number of conversion tool exits by exit code",
		},
		[]string{"tool", "exit_code"}, // exit_code: numeric, "timeout", "cancelled", "spawn_error"
	)

	// Dispatch Metrics
	DispatchPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_published_total",
			Help: "Total number of tasks handed to the dispatcher",
		},
		[]string{"dispatcher", "result"}, // result: "success", "failure"
	)

	DispatchHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_handled_total",
			Help: "Total number of tasks consumed by workers",
		},
		[]string{"dispatcher", "result"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_pool_queue_depth",
			Help: "Current number of tasks waiting in the in-process pool",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of execution status stream connections",
		},
	)

	// Authentication and authorization
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentication attempts by reason",
		},
		[]string{"reason"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by role, object and action",
		},
		[]string{"role", "object", "action", "decision"},
	)
)

// RecordSubmission records the outcome of a submitted request.
func RecordSubmission(action, outcome string) {
	SubmissionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordStep records the duration and outcome of one pipeline step.
func RecordStep(step string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	StepDuration.WithLabelValues(step, outcome).Observe(duration.Seconds())
}

// RecordExecutionFinished records an execution reaching a terminal status.
func RecordExecutionFinished(action, status string) {
	ExecutionsFinished.WithLabelValues(action, status).Inc()
}

// RecordProcessExit records one conversion tool invocation. exitCode is
// ignored when reason is non-empty.
func RecordProcessExit(tool string, duration time.Duration, exitCode int, reason string) {
	ProcessDuration.WithLabelValues(tool).Observe(duration.Seconds())
	label := reason
	if label == "" {
		label = strconv.Itoa(exitCode)
	}
	ProcessExits.WithLabelValues(tool, label).Inc()
}

// RecordDispatch records a publish attempt by a dispatcher.
func RecordDispatch(dispatcher string, err error) {
	DispatchPublished.WithLabelValues(dispatcher, resultLabel(err)).Inc()
}

// RecordHandled records a task consumed by a worker.
func RecordHandled(dispatcher string, err error) {
	DispatchHandled.WithLabelValues(dispatcher, resultLabel(err)).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthzDecision records one policy decision.
func RecordAuthzDecision(role, object, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(role, object, action, decision).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
