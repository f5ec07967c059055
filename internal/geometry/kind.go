// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package geometry

import (
	"strings"
)

// Kind is a geometry type tag.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPoint
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindGeometryCollection
	KindPoint3D
	KindLineString3D
	KindPolygon3D
	KindMultiPoint3D
	KindMultiLineString3D
	KindMultiPolygon3D
	KindGeometryCollection3D
)

var kindNames = [...]string{
	KindUnknown:              "Unknown",
	KindPoint:                "Point",
	KindLineString:           "LineString",
	KindPolygon:              "Polygon",
	KindMultiPoint:           "MultiPoint",
	KindMultiLineString:      "MultiLineString",
	KindMultiPolygon:         "MultiPolygon",
	KindGeometryCollection:   "GeometryCollection",
	KindPoint3D:              "3D Point",
	KindLineString3D:         "3D LineString",
	KindPolygon3D:            "3D Polygon",
	KindMultiPoint3D:         "3D MultiPoint",
	KindMultiLineString3D:    "3D MultiLineString",
	KindMultiPolygon3D:       "3D MultiPolygon",
	KindGeometryCollection3D: "3D GeometryCollection",
}

// baseKinds maps a normalized 2D name (upper case, no separators) to its kind.
var baseKinds = map[string]Kind{
	"POINT":              KindPoint,
	"LINESTRING":         KindLineString,
	"POLYGON":            KindPolygon,
	"MULTIPOINT":         KindMultiPoint,
	"MULTILINESTRING":    KindMultiLineString,
	"MULTIPOLYGON":       KindMultiPolygon,
	"GEOMETRYCOLLECTION": KindGeometryCollection,
}

// promotions is the complete promotion policy.
var promotions = map[Kind]Kind{
	KindLineString: KindMultiLineString,
	KindPolygon:    KindMultiPolygon,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Is3D reports whether k carries a third dimension.
func (k Kind) Is3D() bool {
	return k >= KindPoint3D
}

// IsMulti reports whether k is a multi-part kind or a collection.
func (k Kind) IsMulti() bool {
	switch k.flat() {
	case KindMultiPoint, KindMultiLineString, KindMultiPolygon, KindGeometryCollection:
		return true
	}
	return false
}

// IsPoint reports whether k is a point kind, single or multi.
func (k Kind) IsPoint() bool {
	f := k.flat()
	return f == KindPoint || f == KindMultiPoint
}

// flat returns the 2D kind for k.
func (k Kind) flat() Kind {
	if k.Is3D() {
		return k - (KindPoint3D - KindPoint)
	}
	return k
}

func (k Kind) with3D() Kind {
	if k == KindUnknown || k.Is3D() {
		return k
	}
	return k + (KindPoint3D - KindPoint)
}

// Promoted returns the kind k is promoted to and whether the table has an
// entry for it.
func (k Kind) Promoted() (Kind, bool) {
	p, ok := promotions[k]
	return p, ok
}

// Promotes reports whether k has a multi-part counterpart under the policy.
func (k Kind) Promotes() bool {
	_, ok := promotions[k]
	return ok
}

// ParseKind parses the spellings GDAL/OGR, PostGIS and WKT use for geometry
// types: "Line String", "LINESTRING", "3D Multi Polygon", "POLYGONZ",
// "Point25D", "MultiLineString M". Measured-only names parse to their 2D
// kind. Unrecognised names yield KindUnknown.
func ParseKind(name string) Kind {
	s := strings.ToUpper(name)
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	if s == "" {
		return KindUnknown
	}

	is3D := false
	if rest, ok := strings.CutPrefix(s, "3D"); ok {
		s, is3D = rest, true
	}
	for _, suffix := range []string{"25D", "ZM", "Z", "M"} {
		if rest, ok := strings.CutSuffix(s, suffix); ok {
			if _, known := baseKinds[rest]; known {
				// A measure alone adds no dimension.
				s, is3D = rest, is3D || suffix != "M"
				break
			}
		}
	}

	k, ok := baseKinds[s]
	if !ok {
		return KindUnknown
	}
	if is3D {
		return k.with3D()
	}
	return k
}
