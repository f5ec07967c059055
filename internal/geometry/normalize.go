// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package geometry

import (
	"strings"
	"unicode"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromoteTypeName returns the multi-part type name for a promotable kind,
// "Multi " followed by the title-cased name, and name unchanged otherwise.
//
//	PromoteTypeName("Polygon")     // "Multi Polygon"
//	PromoteTypeName("Linestring")  // "Multi Linestring"
//	PromoteTypeName("Point")       // "Point"
//	PromoteTypeName("Multi Point") // "Multi Point"
func PromoteTypeName(name string) string {
	if !ParseKind(name).Promotes() {
		return name
	}
	// Casers keep state between calls and are not shared.
	return "Multi " + cases.Title(language.Und).String(name)
}

// TypeName returns the GDAL/OGR display name of k, such as
// "Multi Line String" or "3D Polygon".
func (k Kind) TypeName() string {
	name := k.String()
	var b strings.Builder
	prev := ' '
	for _, r := range name {
		if unicode.IsUpper(r) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// NormalizeTypeName maps a geometry type as reported by PostGIS or OGR
// ("MULTIPOLYGON", "LINESTRING") to its promoted display name. Unknown
// names are returned unchanged.
func NormalizeTypeName(raw string) string {
	k := ParseKind(raw)
	if k == KindUnknown {
		return raw
	}
	return PromoteTypeName(k.TypeName())
}

// NeedsPromotion reports whether features declared with the named type are
// converted to multi-part geometries on import.
func NeedsPromotion(name string) bool {
	return ParseKind(name).Promotes()
}

// KindOf returns the Kind of a geometry value.
func KindOf(g geom.T) Kind {
	var k Kind
	switch g.(type) {
	case *geom.Point:
		k = KindPoint
	case *geom.LineString:
		k = KindLineString
	case *geom.Polygon:
		k = KindPolygon
	case *geom.MultiPoint:
		k = KindMultiPoint
	case *geom.MultiLineString:
		k = KindMultiLineString
	case *geom.MultiPolygon:
		k = KindMultiPolygon
	case *geom.GeometryCollection:
		k = KindGeometryCollection
	default:
		return KindUnknown
	}
	if g.Layout().Stride() > 2 {
		return k.with3D()
	}
	return k
}

// Promote wraps a LineString or Polygon in a one-part multi container with
// the same layout and SRID. Every other value is returned as is.
func Promote(g geom.T) geom.T {
	switch v := g.(type) {
	case *geom.LineString:
		mls := geom.NewMultiLineString(v.Layout()).SetSRID(v.SRID())
		if err := mls.Push(v); err != nil {
			return g
		}
		return mls
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(v.Layout()).SetSRID(v.SRID())
		if err := mp.Push(v); err != nil {
			return g
		}
		return mp
	default:
		return g
	}
}
