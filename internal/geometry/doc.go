// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package geometry normalizes geometry kinds to the multi-part form the
// destination schema stores.
//
// Promotion is driven by a fixed table over a closed set of kinds:
//
//	LineString -> MultiLineString
//	Polygon    -> MultiPolygon
//
// Points, kinds that are already multi-part, 3D and measured variants,
// collections and names that do not parse are left unchanged. Both
// PromoteTypeName and Promote are idempotent.
package geometry
