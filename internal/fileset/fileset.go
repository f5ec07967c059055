// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tomtom215/geoimport/internal/models"
)

// Role is the logical name of a file within a FileSet.
type Role string

// Known roles. The set is open: any "<ext>_file" role is accepted.
const (
	RoleBase Role = "base_file"
	RoleDBF  Role = "dbf_file"
	RoleSHX  Role = "shx_file"
	RolePRJ  Role = "prj_file"
	RoleCPG  Role = "cpg_file"
	RoleCST  Role = "cst_file"
	RoleXML  Role = "xml_file"
	RoleSLD  Role = "sld_file"
)

// RoleFor returns the role conventionally used for a companion extension.
func RoleFor(ext string) Role {
	return Role(strings.TrimPrefix(ext, ".") + "_file")
}

// FileSet maps roles to file paths.
type FileSet map[Role]string

// FromMap converts a persisted string map into a FileSet.
func FromMap(m map[string]string) FileSet {
	fs := make(FileSet, len(m))
	for k, v := range m {
		fs[Role(k)] = v
	}
	return fs
}

// ToMap converts the FileSet into a plain string map for persistence.
func (fs FileSet) ToMap() map[string]string {
	m := make(map[string]string, len(fs))
	for k, v := range fs {
		m[string(k)] = v
	}
	return m
}

// Base returns the base file path, or "".
func (fs FileSet) Base() string {
	return fs[RoleBase]
}

// Paths returns every path in the set, sorted.
func (fs FileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for _, p := range fs {
		if p != "" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Stem returns the file name without its directory and final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasExt reports whether path has the stem and exactly the suffix ".<ext>".
// The comparison is case-sensitive.
func HasExt(path, stem, ext string) bool {
	return filepath.Base(path) == stem+"."+ext
}

// Companion returns the path of the file with extension ext that shares the
// base file's stem. The role conventionally used for ext is tried first,
// then every other entry.
func (fs FileSet) Companion(ext string) (string, bool) {
	base := fs.Base()
	if base == "" {
		return "", false
	}
	stem := Stem(base)

	if p, ok := fs[RoleFor(ext)]; ok && HasExt(p, stem, ext) {
		return p, true
	}

	roles := make([]string, 0, len(fs))
	for r := range fs {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		if p := fs[Role(r)]; HasExt(p, stem, ext) {
			return p, true
		}
	}
	return "", false
}

// CheckExists stats every path in the set and fails with ErrInvalidFileSet
// naming the first file that is missing or is a directory.
func (fs FileSet) CheckExists() error {
	for _, p := range fs.Paths() {
		info, err := os.Stat(p)
		if err != nil {
			return models.Wrap(models.ErrInvalidFileSet, err, fmt.Sprintf("file %s is not readable", filepath.Base(p)))
		}
		if info.IsDir() {
			return models.Errorf(models.ErrInvalidFileSet, "file %s is a directory", filepath.Base(p))
		}
	}
	return nil
}
