// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/geoimport/internal/audit"
)

// AuditEvents handles GET /api/v1/audit. Query parameters: type (comma
// separated), actor, execution_id, since (RFC 3339) and limit.
//
// @Summary Query the audit trail
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "Comma-separated event types"
// @Param actor query string false "User name"
// @Param execution_id query string false "Execution ID"
// @Param since query string false "Earliest event time (RFC 3339)"
// @Param limit query int false "Maximum number of events"
// @Success 200 {object} APIResponse{data=[]audit.Event} "Audit events"
// @Failure 400 {object} APIResponse "Invalid filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Not permitted"
// @Failure 503 {object} APIResponse "Audit trail disabled"
// @Router /audit [get]
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.audit == nil {
		rw.ServiceUnavailable("audit trail disabled", nil)
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		rw.ModelError(err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	rw.List(events, len(events))
}

func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Actor:       q.Get("actor"),
		ExecutionID: q.Get("execution_id"),
	}
	if types := q.Get("type"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Types = append(filter.Types, audit.EventType(t))
			}
		}
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, errors.New("since must be an RFC 3339 timestamp")
		}
		filter.Since = &t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > audit.MaxLimit {
			return filter, fmt.Errorf("limit must be between 1 and %d", audit.MaxLimit)
		}
		filter.Limit = n
	}
	return filter, nil
}
