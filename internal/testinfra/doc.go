// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to run the services the importer
// writes to, so datastore tests exercise real PostGIS SQL:
//
//	func TestUpsert(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostGISContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//	    // ...
//	}
//
// Every file carries the integration build tag:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
package testinfra
