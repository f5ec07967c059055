// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

//go:build integration

package datastore

import (
	"context"
	"testing"

	"github.com/tomtom215/geoimport/internal/testinfra"
)

func TestPostgresIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostGISContainer(ctx)
	if err != nil {
		t.Fatalf("NewPostGISContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	store, err := Open(ctx, pg.Datastore, Options{MaxConns: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	// Shape the table the way ogr2ogr creates it.
	setup := []string{
		`CREATE TABLE public.roads (ogc_fid SERIAL PRIMARY KEY, road_id INTEGER, name TEXT, geometry geometry(MultiLineString, 4326))`,
		`INSERT INTO public.roads (road_id, name, geometry) VALUES
			(1, 'Main', ST_GeomFromText('MULTILINESTRING((0 0, 1 1))', 4326)),
			(2, 'High', ST_GeomFromText('MULTILINESTRING((2 2, 3 4))', 4326))`,
		`CREATE TABLE public.roads_stage (ogc_fid SERIAL PRIMARY KEY, road_id INTEGER, name TEXT, geometry geometry(MultiLineString, 4326))`,
		`INSERT INTO public.roads_stage (road_id, name, geometry) VALUES
			(2, 'High Street', ST_GeomFromText('MULTILINESTRING((2 2, 3 5))', 4326)),
			(3, 'Mill', ST_GeomFromText('MULTILINESTRING((5 5, 6 6))', 4326))`,
	}
	for _, stmt := range setup {
		if _, err := store.pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}

	t.Run("layer info", func(t *testing.T) {
		info, err := store.LayerInfo(ctx, "roads")
		if err != nil {
			t.Fatalf("LayerInfo: %v", err)
		}
		if info.FeatureCount != 2 || info.GeometryType != "MULTILINESTRING" {
			t.Errorf("info = %+v", info)
		}
		if len(info.BBox) != 4 || info.BBox[2] != 3 || info.BBox[3] != 4 {
			t.Errorf("bbox = %v", info.BBox)
		}
	})

	t.Run("copy", func(t *testing.T) {
		if err := store.CreateTableLike(ctx, "roads", "roads_copy"); err != nil {
			t.Fatalf("CreateTableLike: %v", err)
		}
		if err := store.CreateTableLike(ctx, "roads", "roads_copy"); err != nil {
			t.Fatalf("CreateTableLike again: %v", err)
		}
		n, skipped, err := store.CopyRows(ctx, "roads", "roads_copy")
		if err != nil || skipped || n != 2 {
			t.Fatalf("CopyRows = %d, %v, %v", n, skipped, err)
		}
		n, skipped, err = store.CopyRows(ctx, "roads", "roads_copy")
		if err != nil || !skipped || n != 0 {
			t.Errorf("CopyRows again = %d, %v, %v; want skipped", n, skipped, err)
		}
	})

	t.Run("merge", func(t *testing.T) {
		if _, _, err := store.MergeFrom(ctx, "exec-bad", "roads_stage", "roads", "missing"); err == nil {
			t.Error("MergeFrom with an unknown key should fail")
		}
		if merged, err := store.Merged(ctx, "exec-bad"); err != nil || merged {
			t.Errorf("Merged after a failed merge = %v, %v", merged, err)
		}

		n, already, err := store.MergeFrom(ctx, "exec-1", "roads_stage", "roads", "road_id")
		if err != nil || already || n != 2 {
			t.Fatalf("MergeFrom = %d, %v, %v", n, already, err)
		}
		var name string
		if err := store.pool.QueryRow(ctx, `SELECT name FROM public.roads WHERE road_id = 2`).Scan(&name); err != nil {
			t.Fatal(err)
		}
		if name != "High Street" {
			t.Errorf("road 2 name = %q", name)
		}
		info, _ := store.LayerInfo(ctx, "roads")
		if info.FeatureCount != 3 {
			t.Errorf("feature count after merge = %d, want 3", info.FeatureCount)
		}
		exists, err := store.TableExists(ctx, "roads_stage")
		if err != nil || exists {
			t.Errorf("staging table after merge exists = %v, %v", exists, err)
		}

		n, already, err = store.MergeFrom(ctx, "exec-1", "roads_stage", "roads", "road_id")
		if err != nil || !already || n != 0 {
			t.Errorf("MergeFrom again = %d, %v, %v; want already merged", n, already, err)
		}
		if merged, err := store.Merged(ctx, "exec-1"); err != nil || !merged {
			t.Errorf("Merged = %v, %v", merged, err)
		}
	})

	t.Run("append", func(t *testing.T) {
		stmts := []string{
			`CREATE TABLE public.roads_more (ogc_fid SERIAL PRIMARY KEY, road_id INTEGER, name TEXT, geometry geometry(MultiLineString, 4326))`,
			`INSERT INTO public.roads_more (road_id, name, geometry) VALUES
				(3, 'Mill', ST_GeomFromText('MULTILINESTRING((7 7, 8 8))', 4326))`,
		}
		for _, stmt := range stmts {
			if _, err := store.pool.Exec(ctx, stmt); err != nil {
				t.Fatalf("setup %q: %v", stmt, err)
			}
		}
		n, already, err := store.MergeFrom(ctx, "exec-2", "roads_more", "roads", "")
		if err != nil || already || n != 1 {
			t.Fatalf("MergeFrom append = %d, %v, %v", n, already, err)
		}
		info, _ := store.LayerInfo(ctx, "roads")
		if info.FeatureCount != 4 {
			t.Errorf("feature count after append = %d, want 4", info.FeatureCount)
		}
	})

	t.Run("drop", func(t *testing.T) {
		if err := store.DropTable(ctx, "roads_copy"); err != nil {
			t.Fatalf("DropTable: %v", err)
		}
		exists, err := store.TableExists(ctx, "roads_copy")
		if err != nil || exists {
			t.Errorf("TableExists after drop = %v, %v", exists, err)
		}
	})
}
