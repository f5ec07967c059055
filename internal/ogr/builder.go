// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import (
	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/geometry"
	"github.com/tomtom215/geoimport/internal/models"
)

// Defaults used when the Builder fields are empty.
const (
	DefaultTool           = "ogr2ogr"
	DefaultGeometryColumn = "geometry"
	driverPostgreSQL      = "PostgreSQL"
)

// Builder constructs ogr2ogr commands targeting one datastore.
type Builder struct {
	Tool           string
	Datastore      Datastore
	GlobalOpts     []string
	GeometryColumn string
}

// Mode selects how the destination table is treated.
type Mode int

const (
	// ModeCreate fails when the table already exists.
	ModeCreate Mode = iota
	// ModeOverwrite drops and recreates the table.
	ModeOverwrite
	// ModeAppend adds features to the existing table.
	ModeAppend
)

// BuildBase builds the format-independent part of the command: driver,
// destination connection, source file, target layer name and table mode.
// originalName, when set, selects the source layer.
func (b *Builder) BuildBase(files fileset.FileSet, originalName string, overwriteLayer bool, alternate string) (*Command, error) {
	mode := ModeCreate
	if overwriteLayer {
		mode = ModeOverwrite
	}
	return b.BuildBaseMode(files, originalName, mode, alternate)
}

// BuildBaseMode is BuildBase with an explicit table mode.
func (b *Builder) BuildBaseMode(files fileset.FileSet, originalName string, mode Mode, alternate string) (*Command, error) {
	source := files.Base()
	if source == "" {
		return nil, models.Errorf(models.ErrInvalidFileSet, "base file is missing")
	}
	if alternate == "" {
		return nil, models.Errorf(models.ErrStepFailed, "target layer name is empty")
	}

	tool := b.Tool
	if tool == "" {
		tool = DefaultTool
	}

	cmd := &Command{Path: tool}
	cmd.add(b.GlobalOpts...)
	cmd.add("-f", driverPostgreSQL)
	cmd.addRedacted(b.Datastore.ConnectionString(), b.Datastore.RedactedConnectionString())
	cmd.add(source, "-nln", alternate)
	if originalName != "" {
		cmd.add(originalName)
	}

	switch mode {
	case ModeOverwrite:
		cmd.add("-overwrite")
	case ModeAppend:
		cmd.add("-append")
	case ModeCreate:
	}
	return cmd, nil
}

// Shapefile appends the shapefile-specific options to a base command:
// layer creation options, multi-part promotion for the declared geometry
// type, and the resolved source encoding when there is one.
func (b *Builder) Shapefile(cmd *Command, files fileset.FileSet, geometryType string) (*Command, error) {
	column := b.GeometryColumn
	if column == "" {
		column = DefaultGeometryColumn
	}

	encoding, err := ResolveEncoding(files)
	if err != nil {
		return nil, err
	}

	cmd.add("-lco", "precision=no", "-lco", "GEOMETRY_NAME="+column)
	if geometry.NeedsPromotion(geometryType) {
		cmd.add("-nlt", "PROMOTE_TO_MULTI")
	}
	if encoding != "" {
		cmd.add("--config", "SHAPE_ENCODING", encoding)
	}
	return cmd, nil
}

// GeoJSON appends the GeoJSON-specific options to a base command.
func (b *Builder) GeoJSON(cmd *Command) *Command {
	column := b.GeometryColumn
	if column == "" {
		column = DefaultGeometryColumn
	}
	cmd.add("-lco", "GEOMETRY_NAME="+column, "-nlt", "PROMOTE_TO_MULTI")
	return cmd
}
