// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package store persists execution records.

Two implementations share the same state transitions:

  - BadgerStore: durable storage in BadgerDB, one JSON record per
    execution under "exec:<id>" plus per-user and active-execution index keys
  - MemoryStore: process-local storage for tests and single-run setups

Both implement the pipeline's persistence callbacks and the limiter's
Counter. Every committed change is handed to an optional Notifier (the
websocket hub in production) as a copy of the record.

Transitions on a terminal execution fail with models.ErrExecutionFinished,
so a late or duplicated task can never reopen a finished execution.
*/
package store
