// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package logging provides the zerolog-based structured logger shared by every
// Geoimport component.
//
// # Overview
//
// The package provides:
//   - A global zerolog logger configured once at startup via Init
//   - JSON output for production and console output for development
//   - Context-aware logging that carries correlation, request and execution IDs
//   - An slog.Handler backed by zerolog, used by sutureslog and Watermill
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("handler", "shapefile").Msg("Handler registered")
//	logging.Error().Err(err).Str("step", "import_resource").Msg("Step failed")
//
//	ctx = logging.ContextWithExecutionID(ctx, exec.ID)
//	logging.Ctx(ctx).Info().Msg("Dispatching next step")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// Always terminate event chains with Msg() or Send(); an unterminated chain is
// never written.
package logging
