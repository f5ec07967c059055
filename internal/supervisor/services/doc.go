// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package services adapts components without a context-aware Serve method
// to suture.Service. The websocket hub, the dispatch pool, the JetStream
// consumer and the embedded NATS server implement Serve themselves and are
// added to the tree directly.
//
// Return values drive the supervisor:
//
//	ctx.Err()  shutdown requested
//	other      crashed, restarted with backoff
package services
