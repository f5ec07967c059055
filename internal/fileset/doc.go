// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package fileset models an uploaded bundle of geospatial files and checks
// that it is structurally complete for a given format.
//
// A FileSet maps a role ("base_file", "dbf_file", ...) to a path. Every
// companion file of a multi-file format must share the base file's stem:
//
//	fs := fileset.FileSet{
//	    fileset.RoleBase: "/staging/roads.shp",
//	    fileset.RoleDBF:  "/staging/roads.dbf",
//	    fileset.RoleSHX:  "/staging/roads.shx",
//	    fileset.RolePRJ:  "/staging/roads.prj",
//	}
//	err := fileset.Shapefile.Validate(fs) // nil
//
// Extension matching is case-sensitive: "roads.SHX" does not satisfy "shx".
// Validation is pure; CheckExists is the only function that touches the disk.
package fileset
