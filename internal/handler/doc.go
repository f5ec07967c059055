// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package handler defines the pluggable format handlers and the registry that
selects one for a request.

A Handler advertises what it can process through explicit capability
queries (CanHandle, CanDo, Serializer) and knows how to validate a request
and build the conversion command for it.

# Registry

The Registry is an explicit value built once at startup and passed to
whatever needs lookups:

	reg, err := handler.NewRegistry(
	    handler.NewShapefileHandler(builder, limiter),
	    handler.NewGeoJSONHandler(builder, limiter),
	)
	h, err := reg.FindHandler(in) // first match in registration order

Registering two handlers with the same ID fails with ErrDuplicateHandler.
FindHandler is deterministic: the same input always yields the same
handler for a given registration order. Ambiguous lists every handler
that would match, so startup checks and tests can flag overlapping
handlers.

# Handlers

  - shapefile: ESRI shapefiles (.shp with .dbf, .shx, .prj companions)
  - geojson: single-file GeoJSON documents (.json, .geojson)

Both support upload, copy, append and upsert.
*/
package handler
