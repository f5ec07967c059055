// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

//go:build !unix

package ogr

import "os/exec"

// configureProcessGroup keeps exec's default cancellation, which kills only
// the direct child on platforms without process groups.
func configureProcessGroup(_ *exec.Cmd) {}
