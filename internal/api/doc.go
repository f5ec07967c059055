// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package api provides the HTTP surface of the import engine, routed with chi.

Endpoints:

	GET    /api/v1/health/live          liveness check
	GET    /api/v1/health/ready         readiness check (store, catalog, datastore, broker)
	GET    /metrics                     Prometheus metrics
	GET    /swagger/*                   OpenAPI document and UI
	GET    /api/v1/handlers             capability descriptors of the registered handlers
	GET    /api/v1/resources            caller's resources (?all=true for everyone's)
	GET    /api/v1/resources/{id}       one resource
	POST   /api/v1/uploads              multipart upload, append or upsert
	POST   /api/v1/executions           JSON copy, append or upsert
	GET    /api/v1/executions           caller's executions (?all=true, ?status=)
	GET    /api/v1/executions/{id}      one execution
	DELETE /api/v1/executions/{id}      cancel
	GET    /api/v1/executions/{id}/ws   websocket status stream
	GET    /api/v1/audit                audit trail (?type=, actor, execution_id, since, limit)

Uploads carry one multipart file per role (base_file, dbf_file, shx_file,
prj_file, ...). The optional "action" field selects append or upsert; other
fields are passed through as request parameters (resource_pk,
overwrite_existing_layer, skip_existing_layers, store_spatial_files,
upsert_key, title).

Every JSON response uses the same envelope:

	{"success": true,  "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "UPLOAD_PARALLELISM_LIMIT", "category": "quota",
	                             "message": "...", "failed_step": "..."}}

Status codes follow the error category: validation 400, forbidden 403,
not_found 404, finished or cancelled executions 409, quota 429, anything
else 500.

Middleware order: request ID, real IP, recoverer and CORS globally; then
rate limiting, security headers, Prometheus metrics and JWT authentication
on /api/v1, with casbin authorization per route. Submissions are
authorized per action inside the pipeline.
*/
package api
