// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/tomtom215/geoimport/internal/models"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestReserveAlternateUnique(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	var got []string
	for i := 0; i < 3; i++ {
		alt, err := c.ReserveAlternate(ctx, "Roads", fmt.Sprintf("exec-%d", i), false)
		if err != nil {
			t.Fatalf("ReserveAlternate: %v", err)
		}
		got = append(got, alt)
	}
	if !slices.Equal(got, []string{"roads", "roads_1", "roads_2"}) {
		t.Errorf("alternates = %v", got)
	}

	// A retried step gets the name its execution already holds.
	again, err := c.ReserveAlternate(ctx, "Roads", "exec-1", false)
	if err != nil || again != "roads_1" {
		t.Errorf("ReserveAlternate retry = %q, %v; want roads_1", again, err)
	}
}

func TestReserveAlternateOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	if _, err := c.ReserveAlternate(ctx, "roads", "exec-1", false); err != nil {
		t.Fatal(err)
	}

	// exec-1 has not published yet, so its name is not up for overwrite.
	alt, err := c.ReserveAlternate(ctx, "roads", "exec-2", true)
	if err != nil || alt != "roads_1" {
		t.Fatalf("ReserveAlternate overwrite of in-flight name = %q, %v; want roads_1", alt, err)
	}

	if err := c.MarkPublished(ctx, "roads", "exec-1", models.LayerInfo{GeometryType: "Polygon"}); err != nil {
		t.Fatal(err)
	}
	alt, err = c.ReserveAlternate(ctx, "roads", "exec-3", true)
	if err != nil || alt != "roads" {
		t.Fatalf("ReserveAlternate overwrite of published name = %q, %v; want roads", alt, err)
	}

	// Two overwrites of one layer must not share it.
	alt, err = c.ReserveAlternate(ctx, "roads", "exec-4", true)
	if err != nil || alt == "roads" || alt == "roads_1" {
		t.Fatalf("second overwrite = %q, %v; want a fresh name", alt, err)
	}
}

func TestReleaseAlternatesRestoresTakenOverLayer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	if _, err := c.ReserveAlternate(ctx, "roads", "exec-1", false); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkPublished(ctx, "roads", "exec-1", models.LayerInfo{}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CreateResource(ctx, models.Resource{
		Alternate: "roads", Title: "Roads", Owner: "alice", HandlerID: "shp", ExecutionID: "exec-1",
	}); err != nil {
		t.Fatal(err)
	}

	if alt, err := c.ReserveAlternate(ctx, "roads", "exec-2", true); err != nil || alt != "roads" {
		t.Fatalf("ReserveAlternate overwrite = %q, %v", alt, err)
	}
	if err := c.ReleaseAlternates(ctx, "exec-2"); err != nil {
		t.Fatalf("ReleaseAlternates: %v", err)
	}

	// The layer is published again and can be overwritten by the next run.
	alt, err := c.ReserveAlternate(ctx, "roads", "exec-3", true)
	if err != nil || alt != "roads" {
		t.Errorf("ReserveAlternate after release = %q, %v; want roads", alt, err)
	}
}

func TestReserveAlternateConcurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			alt, err := c.ReserveAlternate(ctx, "parcels", fmt.Sprintf("exec-%d", i), false)
			if err != nil {
				t.Errorf("ReserveAlternate: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[alt] {
				t.Errorf("alternate %s reserved twice", alt)
			}
			seen[alt] = true
		}(i)
	}
	wg.Wait()
	if len(seen) != n {
		t.Errorf("reserved %d names, want %d", len(seen), n)
	}
}

func TestReleaseAlternates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	if _, err := c.ReserveAlternate(ctx, "roads", "failed", false); err != nil {
		t.Fatal(err)
	}
	if err := c.ReleaseAlternates(ctx, "failed"); err != nil {
		t.Fatalf("ReleaseAlternates: %v", err)
	}
	alt, err := c.ReserveAlternate(ctx, "roads", "next", false)
	if err != nil || alt != "roads" {
		t.Errorf("ReserveAlternate after release = %q, %v", alt, err)
	}
}

func TestResources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := openTestCatalog(t)

	info := models.LayerInfo{GeometryType: "Multi Polygon", FeatureCount: 12, BBox: []float64{1, 2, 3, 4}}
	if err := c.MarkPublished(ctx, "roads", "exec-1", info); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}

	created, err := c.CreateResource(ctx, models.Resource{
		Alternate:   "roads",
		Title:       "Roads",
		Owner:       "alice",
		HandlerID:   "shapefile",
		ExecutionID: "exec-1",
		Layer:       info,
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if created.ID == "" || !created.Published {
		t.Fatalf("created = %+v", created)
	}

	// Creating again for the same alternate returns the same resource.
	info.FeatureCount = 20
	again, err := c.CreateResource(ctx, models.Resource{Alternate: "roads", Owner: "alice", Layer: info})
	if err != nil {
		t.Fatalf("CreateResource again: %v", err)
	}
	if again.ID != created.ID || again.Layer.FeatureCount != 20 {
		t.Errorf("again = %+v", again)
	}

	got, err := c.GetResource(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if got.Title != "Roads" || got.Layer.FeatureCount != 20 || !slices.Equal(got.Layer.BBox, []float64{1, 2, 3, 4}) {
		t.Errorf("GetResource = %+v", got)
	}

	byAlt, err := c.GetResourceByAlternate(ctx, "roads")
	if err != nil || byAlt.ID != created.ID {
		t.Errorf("GetResourceByAlternate = %+v, %v", byAlt, err)
	}

	if _, err := c.GetResource(ctx, "missing"); !errors.Is(err, models.ErrResourceNotFound) {
		t.Errorf("GetResource missing = %v", err)
	}

	if _, err := c.CreateResource(ctx, models.Resource{Alternate: "parks", Owner: "bob", Title: "Parks", HandlerID: "geojson", ExecutionID: "exec-2"}); err != nil {
		t.Fatal(err)
	}
	mine, err := c.ListResources(ctx, "alice")
	if err != nil || len(mine) != 1 {
		t.Errorf("ListResources(alice) = %d, %v", len(mine), err)
	}
	all, _ := c.ListResources(ctx, "")
	if len(all) != 2 {
		t.Errorf("ListResources(all) = %d", len(all))
	}
}
