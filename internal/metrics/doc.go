// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package metrics provides Prometheus metrics collection and export for observability.

Metrics are registered with promauto at package initialization and are
safe for concurrent use.

# Overview

The package provides metrics for:
  - Request admission (submissions by action and outcome, parallelism rejections)
  - Pipeline progress (step duration, active executions, skipped redeliveries)
  - Conversion tool invocations (duration, exit codes, timeouts)
  - Task dispatch (published and handled tasks, pool queue depth)
  - Circuit breaker state transitions
  - HTTP request latency and throughput

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Example Queries

	# Step failure ratio per step over 15 minutes
	sum by (step) (rate(import_step_duration_seconds_count{outcome="failure"}[15m]))
	  / sum by (step) (rate(import_step_duration_seconds_count[15m]))

	# Conversion timeouts
	increase(ogr_process_exits_total{exit_code="timeout"}[1h])
*/
package metrics
