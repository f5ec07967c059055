// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"context"
	"strings"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// ShapefileID is the registry key of the shapefile handler.
const ShapefileID = "shapefile"

// ShapefileHandler imports ESRI shapefiles.
type ShapefileHandler struct {
	vectorHandler
}

// NewShapefileHandler creates the shapefile handler. limiter may be nil in
// tests that do not exercise admission.
func NewShapefileHandler(builder *ogr.Builder, limiter ParallelismChecker) *ShapefileHandler {
	return &ShapefileHandler{vectorHandler{
		desc: Descriptor{
			ID:               ShapefileID,
			Formats:          []fileset.Format{fileset.Shapefile},
			SupportedActions: models.AllActions(),
			Category:         "vector",
		},
		builder: builder,
		limiter: limiter,
	}}
}

// CanHandle matches inputs whose base file is a .shp.
func (h *ShapefileHandler) CanHandle(in Input) bool {
	return h.matches(in)
}

// IsValid checks the parallelism limit, action support and then the
// required companion files. Copy requests carry no files.
func (h *ShapefileHandler) IsValid(ctx context.Context, in Input, user string) error {
	if err := h.checkAdmission(ctx, in, user); err != nil {
		return err
	}
	if in.Action == models.ActionCopy {
		return nil
	}

	if in.Files.Base() == "" {
		return models.Errorf(models.ErrInvalidShapeFile, "base file is missing")
	}
	if missing := fileset.Shapefile.Missing(in.Files); len(missing) > 0 {
		return models.Errorf(models.ErrInvalidShapeFile,
			"missing required companion files: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ImportCommand builds the ogr2ogr command for the execution's shapefile.
func (h *ShapefileHandler) ImportCommand(ctx context.Context, exec *models.Execution) (*ogr.Command, error) {
	files := fileset.FromMap(exec.Files)
	layer, mode := target(exec)

	cmd, err := h.builder.BuildBaseMode(files, exec.Output(models.OutputOriginalName), mode, layer)
	if err != nil {
		return nil, err
	}

	geometryType := exec.Output(models.OutputGeometryType)
	if geometryType == "" {
		if geometryType, err = ReadShapeType(files.Base()); err != nil {
			return nil, err
		}
	}

	cmd, err = h.builder.Shapefile(cmd, files, geometryType)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Debug().
		Str("handler", ShapefileID).
		Str("geometry_type", geometryType).
		Str("command", cmd.String()).
		Msg("Built shapefile import command")
	return cmd, nil
}
