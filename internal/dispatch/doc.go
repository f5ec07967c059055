// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package dispatch delivers pipeline tasks to workers.

Two dispatchers are provided:

  - Pool runs tasks on an in-process worker pool. It is the default for a
    single node and needs no broker.
  - Publisher sends tasks as Watermill messages to the tasks topic. A
    Consumer runs a Watermill router that receives them and calls the
    handler. In production the messages travel through NATS JetStream,
    optionally served by an embedded NATS server; tests use the Watermill
    GoChannel pub/sub.

Both deliver at-least-once. The message UUID of a task is its key,
"<execution_id>:<step>", so JetStream drops duplicates published within
the stream's duplicate window. Handlers must still tolerate redelivery.

Consumer middleware, outermost first:

	Recoverer -> PoisonQueue -> Retry (exponential backoff)

A task whose handler still fails after the retries is moved to the poison
topic and acknowledged. The consumer also remembers the keys of tasks it
handled successfully (an LRU with a one hour TTL) and acknowledges a
redelivered copy without running the step again.
*/
package dispatch
