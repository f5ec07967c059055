// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package models defines the data structures shared by every Geoimport package.

Key Components:

  - Action: the closed set of operations a request can ask for (upload, copy, append, upsert)
  - Execution: the persisted record of one operation, its declared step sequence and progress
  - Task: one pipeline step dispatched to the queue, identified by (execution_id, step)
  - Error: the caller-facing error taxonomy (validation, quota, external_process, ...)

Execution Lifecycle:

	created -> running(step 1) -> ... -> running(step n) -> succeeded
	                  \-> failed(error, failed_step)
	                  \-> cancelled

An Execution is created once admission control has accepted the request and
is mutated only through the pipeline's persistence callbacks.

Error Handling:

Sentinel errors are *Error values. Errors derived from a sentinel with
Errorf or Wrap keep their category and match the sentinel with errors.Is:

	err := models.Errorf(models.ErrInvalidShapeFile, "missing required files: %s", "shx")
	errors.Is(err, models.ErrInvalidShapeFile) // true
	errors.Is(err, models.ErrInvalidFileSet)   // true, shapefile errors are file set errors
	models.CategoryOf(err)                      // CategoryValidation
*/
package models
