// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package catalog is the resource catalog, stored in DuckDB.

Tables:
  - alternates: reserved layer names, one row per destination table, with
    the reserving execution and the layer information recorded on publish
  - resources: published datasets, unique per alternate

Alternate names are reserved before any conversion runs. The primary key on
alternates.name is what makes them unique: ReserveAlternate tries the
sanitized base name, then base_1, base_2 and so on until an insert succeeds.
A retried step gets back the name its execution already holds.
*/
package catalog
