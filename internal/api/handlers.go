// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"context"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/geoimport/internal/audit"
	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/authz"
	"github.com/tomtom215/geoimport/internal/config"
	"github.com/tomtom215/geoimport/internal/handler"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/pipeline"
	ws "github.com/tomtom215/geoimport/internal/websocket"
)

// Pipeline accepts submissions and cancellations.
type Pipeline interface {
	Submit(ctx context.Context, req pipeline.SubmitRequest) (*models.Execution, error)
	Cancel(ctx context.Context, id string) (*models.Execution, error)
}

// ExecutionReader reads persisted executions.
type ExecutionReader interface {
	Get(ctx context.Context, id string) (*models.Execution, error)
	List(ctx context.Context, user string) ([]*models.Execution, error)
}

// ResourceReader reads the resource catalog.
type ResourceReader interface {
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	ListResources(ctx context.Context, owner string) ([]*models.Resource, error)
}

// Capabilities lists the registered import handlers.
type Capabilities interface {
	Descriptors() []handler.Descriptor
}

// Permissions answers fine-grained authorization questions.
type Permissions interface {
	Can(ctx context.Context, role, obj, act string) bool
}

// Auditor records submissions and cancellations and serves the trail.
type Auditor interface {
	Submitted(ctx context.Context, actor audit.Actor, sourceIP string, exec *models.Execution)
	Rejected(ctx context.Context, actor audit.Actor, sourceIP, action string, err error)
	Cancelled(ctx context.Context, actor audit.Actor, sourceIP, execID string, err error)
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// HealthCheck is one dependency consulted by the readiness check.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Dependencies are the collaborators of a Handler. Hub and Audit may be
// nil, which disables the status stream and the audit trail.
type Dependencies struct {
	Pipeline     Pipeline
	Executions   ExecutionReader
	Resources    ResourceReader
	Capabilities Capabilities
	Permissions  Permissions
	Hub          *ws.Hub
	Audit        Auditor
	Checks       []HealthCheck
}

// Handler serves the HTTP API.
type Handler struct {
	pipeline     Pipeline
	executions   ExecutionReader
	resources    ResourceReader
	capabilities Capabilities
	permissions  Permissions
	hub          *ws.Hub
	audit        Auditor
	checks       []HealthCheck

	upload      config.UploadConfig
	corsOrigins []string
	startTime   time.Time
}

// NewHandler creates the API handler.
func NewHandler(deps Dependencies, cfg *config.Config) *Handler {
	return &Handler{
		pipeline:     deps.Pipeline,
		executions:   deps.Executions,
		resources:    deps.Resources,
		capabilities: deps.Capabilities,
		permissions:  deps.Permissions,
		hub:          deps.Hub,
		audit:        deps.Audit,
		checks:       deps.Checks,
		upload:       cfg.Upload,
		corsOrigins:  cfg.Security.CORSOrigins,
		startTime:    time.Now(),
	}
}

// caller returns the authenticated user. The router only mounts handlers
// behind auth.Middleware, so a missing claim is a wiring error.
func caller(r *http.Request) *auth.Claims {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return &auth.Claims{}
	}
	return claims
}

// sourceIP is the client address; RealIP has already applied any
// forwarding headers.
func sourceIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// auditSubmission records the outcome of a submission. exec is nil when
// it was rejected.
func (h *Handler) auditSubmission(r *http.Request, claims *auth.Claims, action string, exec *models.Execution, err error) {
	if h.audit == nil {
		return
	}
	actor := audit.Actor{Name: claims.Username, Role: claims.Role}
	if err != nil {
		h.audit.Rejected(r.Context(), actor, sourceIP(r), action, err)
		return
	}
	h.audit.Submitted(r.Context(), actor, sourceIP(r), exec)
}

// canSeeAll reports whether the caller may read other users' executions
// and resources.
func (h *Handler) canSeeAll(r *http.Request, claims *auth.Claims, obj string) bool {
	return h.permissions != nil && h.permissions.Can(r.Context(), claims.Role, obj, authz.ActReadAll)
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows non-browser clients, which send no Origin,
// and browsers from a configured CORS origin.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.corsOrigins, "*") || slices.Contains(h.corsOrigins, origin) {
		return true
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
