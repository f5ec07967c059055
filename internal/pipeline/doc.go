// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package pipeline runs imports and copies as ordered sequences of persisted
steps.

# Submission

Submit validates a request completely before anything is stored:
authorization, handler lookup, parallelism limit, file set and
parameters. Only then is the execution created and its first step handed
to the dispatcher.

# Steps

Each step is one task, identified by (execution id, step name):

	upload, append, upsert: start_import, import_resource, publish_resource, create_geonode_resource
	copy:                   start_copy, copy_dynamic_model, copy_geonode_data_table, publish_resource, copy_geonode_resource

HandleTask runs one step. Delivery is at-least-once, so HandleTask ignores
tasks for finished executions, for steps already completed (re-dispatching
the step that follows) and for steps that are not next in sequence. Every
step body is safe to repeat.

A failing step marks the execution failed with the step name and stops.
Work done by earlier steps is not rolled back; only unpublished layer name
reservations are released.

# Cancellation

Cancel marks the execution cancelled and cancels the context of a step
running for it in this process, which kills a running conversion.
*/
package pipeline
