// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds each dependency ping of the readiness check.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness check requests. It reports the process as
// alive regardless of its dependencies.
//
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Process is up"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness check requests. It pings every configured
// dependency and answers 503 when any of them is unreachable.
//
// @Summary Readiness
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Every dependency answered"
// @Failure 503 {object} APIResponse "A dependency is unavailable"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]string, len(h.checks))
	ready := true
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := check.Ping(ctx)
		cancel()
		if err != nil {
			ready = false
			status[check.Name] = err.Error()
			continue
		}
		status[check.Name] = "ok"
	}

	rw := NewResponseWriter(w, r)
	if !ready {
		rw.ServiceUnavailable("service not ready", status)
		return
	}
	rw.Success(map[string]interface{}{
		"ready":  true,
		"checks": status,
	})
}
