// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package cache provides a bounded, thread-safe LRU cache with per-entry TTL.

The task consumer uses it to remember which broker messages it already
handled, so a JetStream redelivery after a lost acknowledgement does not run
a pipeline step twice:

	seen := cache.NewLRU[time.Time](10000, time.Hour)
	if seen.Contains(msg.UUID) {
	    return nil
	}
	...
	seen.Add(msg.UUID, time.Now())

Expired entries are dropped lazily on access and in bulk by CleanupExpired.
*/
package cache
