// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package fileset

import (
	"strings"

	"github.com/tomtom215/geoimport/internal/models"
)

// Format describes one file format a handler accepts.
type Format struct {
	// Label is the display name.
	Label string `json:"label"`

	// Ext lists the accepted base file extensions.
	Ext []string `json:"ext"`

	// RequiredExt lists extensions that must all be present, sharing the base stem.
	RequiredExt []string `json:"required_ext"`

	// OptionalExt lists recognised companions that may be absent.
	OptionalExt []string `json:"optional_ext,omitempty"`
}

// Shapefile is the ESRI shapefile format.
var Shapefile = Format{
	Label:       "ESRI Shapefile",
	Ext:         []string{"shp"},
	RequiredExt: []string{"shp", "dbf", "shx", "prj"},
	OptionalExt: []string{"xml", "sld", "cpg", "cst"},
}

// GeoJSON is a single-file GeoJSON document.
var GeoJSON = Format{
	Label:       "GeoJSON",
	Ext:         []string{"json", "geojson"},
	OptionalExt: []string{"xml", "sld"},
}

// Matches reports whether the base file carries one of the format's
// base extensions.
func (f Format) Matches(fs FileSet) bool {
	base := fs.Base()
	if base == "" {
		return false
	}
	stem := Stem(base)
	for _, ext := range f.Ext {
		if HasExt(base, stem, ext) {
			return true
		}
	}
	return false
}

// Missing returns the required extensions that have no file sharing the
// base stem, in declaration order.
func (f Format) Missing(fs FileSet) []string {
	if fs.Base() == "" {
		return append([]string(nil), f.RequiredExt...)
	}
	var missing []string
	for _, ext := range f.RequiredExt {
		if _, ok := fs.Companion(ext); !ok {
			missing = append(missing, ext)
		}
	}
	return missing
}

// Validate fails with ErrInvalidFileSet when the base file is absent or a
// required extension has no matching file.
func (f Format) Validate(fs FileSet) error {
	if fs.Base() == "" {
		return models.Errorf(models.ErrInvalidFileSet, "base file is missing")
	}
	if missing := f.Missing(fs); len(missing) > 0 {
		return models.Errorf(models.ErrInvalidFileSet,
			"%s: missing required files with extension(s) %s", f.Label, strings.Join(missing, ", "))
	}
	return nil
}
