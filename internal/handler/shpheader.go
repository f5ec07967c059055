// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/tomtom215/geoimport/internal/models"
)

const (
	shpHeaderSize = 100
	shpFileCode   = 9994
	shpVersion    = 1000
)

// shapeTypeNames maps the shape type codes of the ESRI main file header to
// OGR geometry type names.
var shapeTypeNames = map[int32]string{
	0:  "None",
	1:  "Point",
	3:  "Line String",
	5:  "Polygon",
	8:  "Multi Point",
	11: "3D Point",
	13: "3D Line String",
	15: "3D Polygon",
	18: "3D Multi Point",
	21: "Point M",
	23: "Line String M",
	25: "Polygon M",
	28: "Multi Point M",
	31: "MultiPatch",
}

// ReadShapeType returns the geometry type declared in the header of a
// .shp file.
func ReadShapeType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", models.Wrap(models.ErrInvalidShapeFile, err, "cannot open shapefile")
	}
	defer f.Close()

	var hdr [shpHeaderSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return "", models.Wrap(models.ErrInvalidShapeFile, err, "shapefile header is truncated")
	}
	return parseShapeType(hdr[:])
}

func parseShapeType(hdr []byte) (string, error) {
	if len(hdr) < shpHeaderSize {
		return "", models.Errorf(models.ErrInvalidShapeFile, "shapefile header is truncated")
	}
	if code := binary.BigEndian.Uint32(hdr[0:4]); code != shpFileCode {
		return "", models.Errorf(models.ErrInvalidShapeFile, "not a shapefile (file code %d)", code)
	}
	if v := binary.LittleEndian.Uint32(hdr[28:32]); v != shpVersion {
		return "", models.Errorf(models.ErrInvalidShapeFile, "unsupported shapefile version %d", v)
	}
	shapeType := int32(binary.LittleEndian.Uint32(hdr[32:36]))
	name, ok := shapeTypeNames[shapeType]
	if !ok {
		return "", models.Errorf(models.ErrInvalidShapeFile, "unknown shape type %d", shapeType)
	}
	return name, nil
}
