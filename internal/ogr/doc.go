// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package ogr builds and runs ogr2ogr conversions into the PostGIS datastore.
//
// # Command Construction
//
// Commands are argument vectors, never shell strings, so file names and
// credentials cannot inject shell syntax. The base vector is:
//
//	ogr2ogr [global-opts] -f PostgreSQL PG:<conn> <source> -nln <alternate> [<source-layer>]
//	        [-overwrite | -append] [format-specific-opts]
//
// Format hooks (Builder.Shapefile) append their options after the base
// vector. Command.String renders a shell-quoted line for logs with the
// datastore password replaced by "***".
//
// # Encoding Resolution
//
// ResolveEncoding implements the shapefile encoding policy: a .cpg file
// defers to GDAL's own detection; otherwise the first line of a .cst file
// is used when it names an IANA-registered encoding. An unknown name is
// logged and dropped.
//
// # Execution
//
// Runner.Run starts the tool in its own process group with an explicit
// timeout, drains stdout and stderr concurrently into bounded tail buffers
// and kills the whole group on timeout or cancellation.
package ogr
