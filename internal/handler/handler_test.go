// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/limiter"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

type allowAll struct{}

func (allowAll) ValidateParallelismLimitPerUser(context.Context, string) error { return nil }

type staticCounter int

func (c staticCounter) CountActive(context.Context, string) (int, error) { return int(c), nil }

func shpHeader(shapeType uint32) []byte {
	hdr := make([]byte, shpHeaderSize)
	binary.BigEndian.PutUint32(hdr[0:4], shpFileCode)
	binary.LittleEndian.PutUint32(hdr[28:32], shpVersion)
	binary.LittleEndian.PutUint32(hdr[32:36], shapeType)
	return hdr
}

// writeBundle writes a polygon shapefile bundle named a.* with the given
// extensions and returns its FileSet.
func writeBundle(t *testing.T, exts []string, extra map[string]string) fileset.FileSet {
	t.Helper()
	dir := t.TempDir()
	fs := fileset.FileSet{}
	for _, ext := range exts {
		p := filepath.Join(dir, "a."+ext)
		var content []byte
		if ext == "shp" {
			content = shpHeader(5)
		}
		if err := os.WriteFile(p, content, 0o600); err != nil {
			t.Fatal(err)
		}
		if ext == "shp" {
			fs[fileset.RoleBase] = p
		} else {
			fs[fileset.RoleFor(ext)] = p
		}
	}
	for ext, content := range extra {
		p := filepath.Join(dir, "a."+ext)
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		fs[fileset.RoleFor(ext)] = p
	}
	return fs
}

func testBuilder() *ogr.Builder {
	return &ogr.Builder{Datastore: ogr.Datastore{Host: "db", Port: 5432, User: "geo", Password: "pw", DBName: "geodata"}}
}

func testRegistry(t *testing.T, checker ParallelismChecker) *Registry {
	t.Helper()
	b := testBuilder()
	reg, err := NewRegistry(NewShapefileHandler(b, checker), NewGeoJSONHandler(b, checker))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestShapefileUploadPipeline(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, allowAll{})
	in := Input{
		Action: models.ActionUpload,
		Files:  writeBundle(t, []string{"shp", "dbf", "prj", "shx"}, nil),
	}

	h, err := reg.FindHandler(in)
	if err != nil {
		t.Fatalf("FindHandler: %v", err)
	}
	if h.ID() != ShapefileID {
		t.Fatalf("handler = %s, want %s", h.ID(), ShapefileID)
	}
	if err := h.IsValid(context.Background(), in, "alice"); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	want := []string{
		models.StepStartImport,
		models.StepImportResource,
		models.StepPublishResource,
		models.StepCreateGeoNodeResource,
	}
	if got := h.Steps(in.Action); !slices.Equal(got, want) {
		t.Errorf("Steps = %v, want %v", got, want)
	}
}

func TestShapefileMissingCompanion(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, allowAll{})
	in := Input{
		Action: models.ActionUpload,
		Files:  writeBundle(t, []string{"shp", "dbf", "prj"}, nil),
	}

	h, err := reg.FindHandler(in)
	if err != nil {
		t.Fatalf("FindHandler: %v", err)
	}
	err = h.IsValid(context.Background(), in, "alice")
	if !errors.Is(err, models.ErrInvalidShapeFile) {
		t.Fatalf("IsValid error = %v, want ErrInvalidShapeFile", err)
	}
	if !errors.Is(err, models.ErrInvalidFileSet) {
		t.Error("ErrInvalidShapeFile should also match ErrInvalidFileSet")
	}
	if !strings.Contains(err.Error(), "shx") {
		t.Errorf("error %q does not mention shx", err)
	}
}

func TestShapefileRequiredCompanions(t *testing.T) {
	t.Parallel()

	h := NewShapefileHandler(testBuilder(), allowAll{})
	for _, drop := range []string{"dbf", "shx", "prj"} {
		t.Run(drop, func(t *testing.T) {
			t.Parallel()
			var exts []string
			for _, ext := range []string{"shp", "dbf", "shx", "prj"} {
				if ext != drop {
					exts = append(exts, ext)
				}
			}
			in := Input{Action: models.ActionUpload, Files: writeBundle(t, exts, nil)}
			err := h.IsValid(context.Background(), in, "alice")
			if !errors.Is(err, models.ErrInvalidShapeFile) || !strings.Contains(err.Error(), drop) {
				t.Errorf("IsValid without %s = %v", drop, err)
			}
		})
	}
}

func TestShapefileExtensionCaseSensitive(t *testing.T) {
	t.Parallel()

	h := NewShapefileHandler(testBuilder(), allowAll{})
	dir := t.TempDir()
	in := Input{
		Action: models.ActionUpload,
		Files: fileset.FileSet{
			fileset.RoleBase: filepath.Join(dir, "a.shp"),
			fileset.RoleDBF:  filepath.Join(dir, "a.DBF"),
			fileset.RoleSHX:  filepath.Join(dir, "a.shx"),
			fileset.RolePRJ:  filepath.Join(dir, "a.prj"),
		},
	}
	err := h.IsValid(context.Background(), in, "alice")
	if !errors.Is(err, models.ErrInvalidShapeFile) || !strings.Contains(err.Error(), "dbf") {
		t.Errorf("IsValid with a.DBF = %v, want missing dbf", err)
	}
}

func TestZeroCeilingRejects(t *testing.T) {
	t.Parallel()

	lim := limiter.New(0, nil, limiter.ScopeUser, staticCounter(0))
	reg := testRegistry(t, lim)

	inputs := []Input{
		{Action: models.ActionUpload, Files: writeBundle(t, []string{"shp", "dbf", "prj", "shx"}, nil)},
		{Action: models.ActionUpload, Files: writeBundle(t, []string{"shp"}, nil)},
		{Action: models.ActionCopy, HandlerID: GeoJSONID},
	}
	for _, in := range inputs {
		h, err := reg.FindHandler(in)
		if err != nil {
			t.Fatalf("FindHandler: %v", err)
		}
		err = h.IsValid(context.Background(), in, "alice")
		if !errors.Is(err, models.ErrParallelismLimit) {
			t.Errorf("IsValid(%s) = %v, want ErrParallelismLimit", h.ID(), err)
		}
	}
}

func TestLimitReached(t *testing.T) {
	t.Parallel()

	h := NewShapefileHandler(testBuilder(), limiter.New(2, nil, limiter.ScopeUser, staticCounter(2)))
	in := Input{Action: models.ActionUpload, Files: writeBundle(t, []string{"shp", "dbf", "prj", "shx"}, nil)}

	err := h.IsValid(context.Background(), in, "alice")
	var merr *models.Error
	if !errors.As(err, &merr) || !merr.Retryable() {
		t.Fatalf("IsValid = %v, want retryable quota error", err)
	}
}

func TestShapefileEncoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cst  string
		want string
	}{
		{"utf8", "UTF-8", "UTF-8"},
		{"trailing newline", "ISO-8859-1\n", "ISO-8859-1"},
		{"garbage", "not-a-real-charset", ""},
	}

	h := NewShapefileHandler(testBuilder(), allowAll{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			files := writeBundle(t, []string{"shp", "dbf", "prj", "shx"}, map[string]string{"cst": tt.cst})
			exec := &models.Execution{
				ID:     "e1",
				Action: models.ActionUpload,
				Files:  files.ToMap(),
				Outputs: map[string]string{
					models.OutputAlternate:    "a",
					models.OutputOriginalName: "a",
				},
			}

			cmd, err := h.ImportCommand(context.Background(), exec)
			if err != nil {
				t.Fatalf("ImportCommand: %v", err)
			}
			got, ok := cmd.Config("SHAPE_ENCODING")
			if tt.want == "" {
				if ok {
					t.Errorf("SHAPE_ENCODING = %q, want none", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("SHAPE_ENCODING = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShapefileImportCommand(t *testing.T) {
	t.Parallel()

	h := NewShapefileHandler(testBuilder(), allowAll{})
	files := writeBundle(t, []string{"shp", "dbf", "prj", "shx"}, nil)

	tests := []struct {
		name      string
		action    models.Action
		params    models.Params
		wantLayer string
		wantFlag  string
	}{
		{"upload", models.ActionUpload, models.Params{}, "roads", "-overwrite"},
		{"overwrite", models.ActionUpload, models.Params{OverwriteExistingLayer: true}, "roads", "-overwrite"},
		{"append", models.ActionAppend, models.Params{ResourcePK: "1"}, "roads_stage", "-overwrite"},
		{"upsert", models.ActionUpsert, models.Params{ResourcePK: "1", UpsertKey: "id"}, "roads_stage", "-overwrite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			exec := &models.Execution{
				ID:     "e1",
				Action: tt.action,
				Params: tt.params,
				Files:  files.ToMap(),
				Outputs: map[string]string{
					models.OutputAlternate:    "roads",
					models.OutputStagingTable: "roads_stage",
					models.OutputOriginalName: "a",
				},
			}
			cmd, err := h.ImportCommand(context.Background(), exec)
			if err != nil {
				t.Fatalf("ImportCommand: %v", err)
			}
			if got := cmd.Values("-nln"); !slices.Equal(got, []string{tt.wantLayer}) {
				t.Errorf("-nln = %v, want %s", got, tt.wantLayer)
			}
			for _, flag := range []string{"-overwrite", "-append"} {
				if cmd.Has(flag) != (flag == tt.wantFlag) {
					t.Errorf("Has(%s) = %v", flag, cmd.Has(flag))
				}
			}
			if !cmd.Has("-nlt") {
				t.Error("polygon shapefile should be promoted to multi")
			}
		})
	}
}

func TestShapeTypePromotion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shapeType uint32
		want      string
		promote   bool
	}{
		{1, "Point", false},
		{3, "Line String", true},
		{5, "Polygon", true},
		{13, "3D Line String", false},
		{15, "3D Polygon", false},
		{21, "Point M", false},
		{23, "Line String M", true},
		{25, "Polygon M", true},
		{28, "Multi Point M", false},
		{31, "MultiPatch", false},
	}
	for _, tt := range tests {
		name, err := parseShapeType(shpHeader(tt.shapeType))
		if err != nil {
			t.Fatalf("parseShapeType(%d): %v", tt.shapeType, err)
		}
		if name != tt.want {
			t.Errorf("parseShapeType(%d) = %q, want %q", tt.shapeType, name, tt.want)
		}

		cmd, err := testBuilder().Shapefile(&ogr.Command{}, fileset.FileSet{}, name)
		if err != nil {
			t.Fatalf("Shapefile(%q): %v", name, err)
		}
		if got := cmd.Has("PROMOTE_TO_MULTI"); got != tt.promote {
			t.Errorf("%s promoted = %v, want %v", name, got, tt.promote)
		}
	}
}

func TestCopyPipeline(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, allowAll{})
	in := Input{
		Action:    models.ActionCopy,
		HandlerID: ShapefileID,
		Data:      map[string]string{"resource_pk": "42"},
	}

	h, err := reg.FindHandler(in)
	if err != nil {
		t.Fatalf("FindHandler: %v", err)
	}
	if err := h.IsValid(context.Background(), in, "alice"); err != nil {
		t.Fatalf("IsValid: %v", err)
	}
	params, err := h.ExtractParams(in)
	if err != nil {
		t.Fatalf("ExtractParams: %v", err)
	}
	if params.ResourcePK != "42" {
		t.Errorf("ResourcePK = %q", params.ResourcePK)
	}

	want := []string{
		models.StepStartCopy,
		models.StepCopyDynamicModel,
		models.StepCopyGeoNodeDataTable,
		models.StepPublishResource,
		models.StepCopyGeoNodeResource,
	}
	if got := h.Steps(models.ActionCopy); !slices.Equal(got, want) {
		t.Errorf("Steps = %v, want %v", got, want)
	}
}

func TestGeoJSONHandler(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "parks.geojson")
	if err := os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	reg := testRegistry(t, allowAll{})
	in := Input{Action: models.ActionUpload, Files: fileset.FileSet{fileset.RoleBase: path}}

	h, err := reg.FindHandler(in)
	if err != nil {
		t.Fatalf("FindHandler: %v", err)
	}
	if h.ID() != GeoJSONID {
		t.Fatalf("handler = %s, want %s", h.ID(), GeoJSONID)
	}
	if err := h.IsValid(context.Background(), in, "bob"); err != nil {
		t.Fatalf("IsValid: %v", err)
	}

	exec := &models.Execution{
		Action:  models.ActionUpload,
		Files:   in.Files.ToMap(),
		Outputs: map[string]string{models.OutputAlternate: "parks"},
	}
	cmd, err := h.ImportCommand(context.Background(), exec)
	if err != nil {
		t.Fatalf("ImportCommand: %v", err)
	}
	argv := cmd.Argv()
	if argv[len(argv)-1] != "PROMOTE_TO_MULTI" {
		t.Errorf("argv = %v", argv)
	}
	i := slices.Index(argv, "-nln")
	if i < 0 || argv[i+1] != "parks" || argv[i+2] != "-lco" {
		t.Errorf("source layer name should not be passed for GeoJSON: %v", argv)
	}
}

func TestNoHandler(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, allowAll{})
	tests := []Input{
		{Action: models.ActionUpload, Files: fileset.FileSet{fileset.RoleBase: "/tmp/a.kml"}},
		{Action: models.ActionUpload},
		{Action: models.ActionCopy, HandlerID: "raster"},
	}
	for _, in := range tests {
		if _, err := reg.FindHandler(in); !errors.Is(err, models.ErrNoHandler) {
			t.Errorf("FindHandler(%v) = %v, want ErrNoHandler", in.Files, err)
		}
	}
}

// overlapHandler claims every .shp input.
type overlapHandler struct {
	*ShapefileHandler
	id string
}

func (h overlapHandler) ID() string { return h.id }

func TestFindHandlerDeterministic(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	first := overlapHandler{NewShapefileHandler(b, allowAll{}), "shapefile-legacy"}
	reg, err := NewRegistry(first, NewShapefileHandler(b, allowAll{}), NewGeoJSONHandler(b, allowAll{}))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	in := Input{Action: models.ActionUpload, Files: fileset.FileSet{fileset.RoleBase: "/data/a.shp"}}

	for i := 0; i < 50; i++ {
		h, err := reg.FindHandler(in)
		if err != nil {
			t.Fatalf("FindHandler: %v", err)
		}
		if h.ID() != "shapefile-legacy" {
			t.Fatalf("iteration %d: handler = %s, want first registered", i, h.ID())
		}
	}

	if got := reg.Ambiguous(in); !slices.Equal(got, []string{"shapefile-legacy", ShapefileID}) {
		t.Errorf("Ambiguous = %v", got)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()

	b := testBuilder()
	_, err := NewRegistry(NewShapefileHandler(b, nil), NewShapefileHandler(b, nil))
	if !errors.Is(err, ErrDuplicateHandler) {
		t.Fatalf("NewRegistry duplicate = %v, want ErrDuplicateHandler", err)
	}
}

func TestDescriptorsAreCopies(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t, nil)
	ds := reg.Descriptors()
	if len(ds) != 2 || ds[0].ID != ShapefileID || ds[1].ID != GeoJSONID {
		t.Fatalf("Descriptors = %+v", ds)
	}
	ds[0].Formats[0].RequiredExt[0] = "tampered"
	ds[0].SupportedActions[0] = "tampered"

	again := reg.Descriptors()
	if again[0].Formats[0].RequiredExt[0] != "shp" || again[0].SupportedActions[0] != models.ActionUpload {
		t.Error("mutating a returned descriptor changed the registry")
	}
}
