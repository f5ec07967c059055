// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"context"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// GeoJSONID is the registry key of the GeoJSON handler.
const GeoJSONID = "geojson"

// GeoJSONHandler imports single-file GeoJSON documents.
type GeoJSONHandler struct {
	vectorHandler
}

// NewGeoJSONHandler creates the GeoJSON handler.
func NewGeoJSONHandler(builder *ogr.Builder, limiter ParallelismChecker) *GeoJSONHandler {
	return &GeoJSONHandler{vectorHandler{
		desc: Descriptor{
			ID:               GeoJSONID,
			Formats:          []fileset.Format{fileset.GeoJSON},
			SupportedActions: models.AllActions(),
			Category:         "vector",
		},
		builder: builder,
		limiter: limiter,
	}}
}

// CanHandle matches inputs whose base file is .json or .geojson.
func (h *GeoJSONHandler) CanHandle(in Input) bool {
	return h.matches(in)
}

// IsValid checks the parallelism limit, action support and the base file.
func (h *GeoJSONHandler) IsValid(ctx context.Context, in Input, user string) error {
	if err := h.checkAdmission(ctx, in, user); err != nil {
		return err
	}
	if in.Action == models.ActionCopy {
		return nil
	}
	return fileset.GeoJSON.Validate(in.Files)
}

// ImportCommand builds the ogr2ogr command for the execution's document.
// The source layer is not named: a GeoJSON file holds exactly one layer
// whose name depends on the document rather than the file name.
func (h *GeoJSONHandler) ImportCommand(_ context.Context, exec *models.Execution) (*ogr.Command, error) {
	files := fileset.FromMap(exec.Files)
	layer, mode := target(exec)

	cmd, err := h.builder.BuildBaseMode(files, "", mode, layer)
	if err != nil {
		return nil, err
	}
	return h.builder.GeoJSON(cmd), nil
}
