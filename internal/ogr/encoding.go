// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
)

// maxCSTSize bounds a .cst file; it holds a single encoding name.
const maxCSTSize = 1024

// ResolveEncoding returns the explicit source encoding for a shapefile, or
// "" to let GDAL detect it. It fails only when the .cst file is
// structurally malformed (a directory or larger than 1 KiB).
func ResolveEncoding(files fileset.FileSet) (string, error) {
	if _, ok := files.Companion("cpg"); ok {
		return "", nil
	}
	cst, ok := files.Companion("cst")
	if !ok {
		return "", nil
	}

	info, err := os.Stat(cst)
	if err != nil {
		logging.Warn().Err(err).Str("file", filepath.Base(cst)).Msg("Encoding file unreadable, using default detection")
		return "", nil
	}
	if info.IsDir() {
		return "", models.Errorf(models.ErrInvalidShapeFile, "encoding file %s is a directory", filepath.Base(cst))
	}
	if info.Size() > maxCSTSize {
		return "", models.Errorf(models.ErrInvalidShapeFile,
			"encoding file %s is %d bytes, expected a single encoding name", filepath.Base(cst), info.Size())
	}

	name, err := readFirstLine(cst)
	if err != nil {
		logging.Warn().Err(err).Str("file", filepath.Base(cst)).Msg("Encoding file unreadable, using default detection")
		return "", nil
	}

	canonical, ok := CanonicalEncoding(name)
	if !ok {
		logging.Warn().Str("file", filepath.Base(cst)).Str("encoding", name).Msg("Unknown encoding name ignored")
		return "", nil
	}
	return canonical, nil
}

// CanonicalEncoding validates name against the IANA character set registry
// and returns its preferred MIME name, or its IANA name when it has none.
func CanonicalEncoding(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return "", false
	}
	if enc == nil {
		// Registered, but x/text has no implementation to name it by.
		return name, true
	}
	if mime, err := ianaindex.MIME.Name(enc); err == nil {
		return mime, true
	}
	if iana, err := ianaindex.IANA.Name(enc); err == nil {
		return iana, true
	}
	return name, true
}

func readFirstLine(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is a staged upload
	if err != nil {
		return "", err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return "", sc.Err()
	}
	line := strings.TrimPrefix(sc.Text(), "\ufeff")
	return strings.TrimSpace(line), nil
}
