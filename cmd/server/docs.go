// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// General API information for swag. Regenerate the docs package with:
//
//	swag init -g cmd/server/docs.go -d ./,./internal/api -o docs
//
// @title Geoimport API
// @version 1.0
// @description Imports geospatial file sets (Shapefile, GeoJSON) into PostGIS and records them as catalog resources.
// @description
// @description ## Executions
// @description
// @description Every upload, copy, append or upsert is an execution that runs one step at a time.
// @description Poll `/executions/{id}` or open the WebSocket at `/executions/{id}/ws` to follow it.
// @description
// @description ## Error Responses
// @description
// @description Errors carry a machine-readable code, a category and, for failed executions, the failed step:
// @description ```json
// @description {
// @description   "success": false,
// @description   "error": {
// @description     "code": "INVALID_SHAPE_FILE",
// @description     "category": "validation",
// @description     "message": "missing required companion files: prj"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/geoimport/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token signed with JWT_SECRET. Mint one with `geoimport token`. The token cookie is accepted as well.
//
// @tag.name Executions
// @tag.description Submitting, following and cancelling imports
//
// @tag.name Catalog
// @tag.description Import handlers and published resources
//
// @tag.name Admin
// @tag.description Audit trail
//
// @tag.name Health
// @tag.description Liveness and readiness
package main
