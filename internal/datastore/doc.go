// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package datastore talks to the PostGIS database that imported layers
// land in. ogr2ogr writes the tables; this package copies, merges and
// inspects them afterwards.
//
// Every table name is schema-qualified and quoted with
// pgx.Identifier.Sanitize, so layer names never reach SQL unquoted.
package datastore
