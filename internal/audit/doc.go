// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package audit keeps a trail of who submitted, was refused, or cancelled
// which import.
//
// Events are queued by Record without blocking the request and written by
// Logger.Serve, which runs under the supervisor:
//
//	Logger.Record() -> buffered chan -> Logger.Serve -> Store
//
// DuckDBStore keeps the trail in the catalog database; MemoryStore serves
// tests and development. Events older than Config.Retention are deleted on
// every CleanupInterval tick.
//
// Event types:
//   - execution.submitted: a submission was admitted
//   - execution.rejected: validation, quota or another admission check failed
//   - execution.cancelled: a cancellation request, successful or not
//   - authz.denied: the caller's role may not perform the submitted action
package audit
