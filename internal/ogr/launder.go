// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package ogr

import "strings"

// MaxLayerName is the PostgreSQL identifier length limit.
const MaxLayerName = 63

// LaunderLayerName turns an arbitrary name into the lower-case PostgreSQL
// identifier the PostgreSQL driver creates for it with LAUNDER=YES.
func LaunderLayerName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}

	s := strings.Trim(b.String(), "_")
	if s == "" {
		s = "layer"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	if len(s) > MaxLayerName {
		s = s[:MaxLayerName]
	}
	return s
}
