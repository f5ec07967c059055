// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package middleware provides infrastructure HTTP middleware shared by the API
router.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request count and latency per chi route pattern

Both are plain func(http.Handler) http.Handler values and compose with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Metrics are labelled with the route pattern ("/api/v1/executions/{id}")
rather than the raw path, so execution IDs never become label values.
*/
package middleware
