// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Command server runs the geoimport engine: it accepts geospatial file sets
over HTTP, validates them, and imports them into PostGIS with ogr2ogr,
one supervised step at a time.

# Startup

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. WebSocket hub, which the execution store notifies
 4. Execution store: BadgerDB, or memory for development
 5. Resource catalog (DuckDB) and destination datastore (PostGIS via pgx)
 6. Spatial file retention in MinIO, when enabled
 7. Parallelism limiter, command builder, runner and handler registry
 8. Casbin enforcer and the pipeline orchestrator
 9. Audit trail writer (DuckDB, in the catalog file), unless AUDIT_ENABLED=false
 10. Task dispatch: in-process pool, or Watermill over NATS JetStream
    with an optional embedded server
 11. Resume of executions a previous run left running
 12. HTTP API (chi), then the suture supervisor tree

# Supervisor Tree

	geoimport
	├── broker-layer   embedded NATS server (dispatch.mode=nats)
	├── worker-layer   websocket hub, audit writer, task pool or JetStream consumer
	└── api-layer      HTTP server

# Tokens

With AUTH_MODE=jwt, clients present a bearer token signed with JWT_SECRET.
Operators mint one with:

	geoimport token -user alice -role editor

The OpenAPI document is served at /swagger/doc.json with a browsable UI
under /swagger/.

# Signals

SIGINT and SIGTERM cancel the tree. The HTTP server drains for
SHUTDOWN_TIMEOUT; running conversions are cancelled and their
executions stay running in the store. The next start re-dispatches
each of them from its current step.
*/
package main
