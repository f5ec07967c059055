// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

//go:build integration

package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/testinfra"
)

func TestMinIOStage(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	mc, err := testinfra.NewMinIOContainer(ctx)
	if err != nil {
		t.Fatalf("NewMinIOContainer: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, mc)

	m, err := NewMinIO(Config{
		Endpoint:        mc.Endpoint,
		AccessKeyID:     testinfra.MinIOAccessKey,
		SecretAccessKey: testinfra.MinIOSecretKey,
		Bucket:          "spatial",
		Prefix:          "uploads",
	})
	if err != nil {
		t.Fatalf("NewMinIO: %v", err)
	}
	if err := m.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}
	if err := m.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket again: %v", err)
	}

	dir := t.TempDir()
	fs := fileset.FileSet{}
	for role, name := range map[fileset.Role]string{fileset.RoleBase: "a.shp", fileset.RoleDBF: "a.dbf"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
		fs[role] = p
	}

	staged, err := m.Stage(ctx, "e1", fs)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if staged[fileset.RoleBase] != "s3://spatial/uploads/e1/a.shp" || len(staged) != 2 {
		t.Errorf("staged = %v", staged)
	}
}
