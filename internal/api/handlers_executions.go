// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/audit"
	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/authz"
	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/pipeline"
	ws "github.com/tomtom215/geoimport/internal/websocket"
)

// maxJSONBody bounds the body of JSON submissions.
const maxJSONBody = 1 << 20

// executionRequest is the JSON body of POST /api/v1/executions. Copy
// carries no files. Append and upsert may reference files already staged
// under the staging directory.
type executionRequest struct {
	Action                 string            `json:"action"`
	ResourcePK             string            `json:"resource_pk"`
	Title                  string            `json:"title,omitempty"`
	UpsertKey              string            `json:"upsert_key,omitempty"`
	OverwriteExistingLayer bool              `json:"overwrite_existing_layer,omitempty"`
	SkipExistingLayers     bool              `json:"skip_existing_layers,omitempty"`
	StoreSpatialFiles      bool              `json:"store_spatial_files,omitempty"`
	Files                  map[string]string `json:"files,omitempty"`
}

func (req *executionRequest) data() map[string]string {
	data := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}
	set("resource_pk", req.ResourcePK)
	set("title", req.Title)
	set("upsert_key", req.UpsertKey)
	if req.OverwriteExistingLayer {
		data["overwrite_existing_layer"] = strconv.FormatBool(true)
	}
	if req.SkipExistingLayers {
		data["skip_existing_layers"] = strconv.FormatBool(true)
	}
	if req.StoreSpatialFiles {
		data["store_spatial_files"] = strconv.FormatBool(true)
	}
	return data
}

// CreateExecution handles POST /api/v1/executions.
//
// @Summary Start an execution
// @Description Starts a copy of an existing resource, or an append or upsert of files already staged on the server.
// @Tags Executions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body executionRequest true "Execution request"
// @Success 202 {object} APIResponse{data=submissionResponse} "Execution accepted"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Action not permitted for the caller's role"
// @Failure 404 {object} APIResponse "Resource not found"
// @Failure 429 {object} APIResponse "Parallelism limit or rate limit reached"
// @Router /executions [post]
func (h *Handler) CreateExecution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims := caller(r)

	var req executionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("invalid request body: " + err.Error())
		return
	}

	files, err := h.stagedFiles(req.Files)
	if err != nil {
		h.auditSubmission(r, claims, req.Action, nil, err)
		rw.ModelError(err)
		return
	}

	exec, err := h.pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		User:   claims.Username,
		Role:   claims.Role,
		Action: req.Action,
		Files:  files,
		Data:   req.data(),
	})
	h.auditSubmission(r, claims, req.Action, exec, err)
	if err != nil {
		rw.ModelError(err)
		return
	}
	rw.Accepted(newSubmissionResponse(exec))
}

// stagedFiles resolves client-referenced paths, which must lie inside the
// staging directory.
func (h *Handler) stagedFiles(refs map[string]string) (fileset.FileSet, error) {
	files := make(fileset.FileSet, len(refs))
	root, err := filepath.Abs(h.upload.StagingDir)
	if err != nil {
		return nil, err
	}
	for role, ref := range refs {
		if !roleField.MatchString(role) {
			return nil, models.Errorf(models.ErrInvalidFileSet, "unexpected file role %q", role)
		}
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		path = filepath.Clean(path)
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, models.Errorf(models.ErrInvalidFileSet, "%s must reference a staged file", role)
		}
		files[fileset.Role(role)] = path
	}
	return files, nil
}

// ListExecutions handles GET /api/v1/executions. Callers see their own
// executions; with ?all=true callers allowed to read all see every user's.
// ?status= filters by status.
//
// @Summary List executions
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param all query bool false "List the executions of every user"
// @Param status query string false "Filter by status" Enums(created, running, succeeded, failed, cancelled)
// @Success 200 {object} APIResponse{data=[]models.Execution} "Executions"
// @Failure 400 {object} APIResponse "Unknown status"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Listing all executions is not permitted"
// @Router /executions [get]
func (h *Handler) ListExecutions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims := caller(r)

	user := claims.Username
	if r.URL.Query().Get("all") == "true" {
		if !h.canSeeAll(r, claims, authz.ObjectExecutions) {
			rw.Forbidden("listing all executions is not permitted")
			return
		}
		user = ""
	}

	var status models.Status
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := models.ParseStatus(s)
		if err != nil {
			rw.BadRequest(err.Error())
			return
		}
		status = parsed
	}

	execs, err := h.executions.List(r.Context(), user)
	if err != nil {
		rw.ModelError(err)
		return
	}
	if status != "" {
		filtered := execs[:0]
		for _, e := range execs {
			if e.Status == status {
				filtered = append(filtered, e)
			}
		}
		execs = filtered
	}
	if execs == nil {
		execs = []*models.Execution{}
	}
	rw.List(execs, len(execs))
}

// visibleExecution loads the execution named in the URL. Executions of
// other users are reported as not found unless the caller may read all.
func (h *Handler) visibleExecution(r *http.Request, claims *auth.Claims) (*models.Execution, error) {
	id := chi.URLParam(r, "id")
	exec, err := h.executions.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if exec.User != claims.Username && !h.canSeeAll(r, claims, authz.ObjectExecutions) {
		return nil, models.Errorf(models.ErrExecutionNotFound, "execution %s not found", id)
	}
	return exec, nil
}

// GetExecution handles GET /api/v1/executions/{id}.
//
// @Summary Get an execution
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Execution ID"
// @Success 200 {object} APIResponse{data=models.Execution} "Execution"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Execution not found"
// @Router /executions/{id} [get]
func (h *Handler) GetExecution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	exec, err := h.visibleExecution(r, caller(r))
	if err != nil {
		rw.ModelError(err)
		return
	}
	rw.Success(exec)
}

// CancelExecution handles DELETE /api/v1/executions/{id}.
//
// @Summary Cancel an execution
// @Description Marks the execution cancelled and aborts its running step.
// @Tags Executions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Execution ID"
// @Success 200 {object} APIResponse{data=models.Execution} "Cancelled execution"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Execution not found"
// @Failure 409 {object} APIResponse "Execution already finished"
// @Router /executions/{id} [delete]
func (h *Handler) CancelExecution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	exec, err := h.visibleExecution(r, caller(r))
	if err != nil {
		rw.ModelError(err)
		return
	}
	cancelled, err := h.pipeline.Cancel(r.Context(), exec.ID)
	if h.audit != nil {
		claims := caller(r)
		h.audit.Cancelled(r.Context(), audit.Actor{Name: claims.Username, Role: claims.Role}, sourceIP(r), exec.ID, err)
	}
	if err != nil {
		rw.ModelError(err)
		return
	}
	rw.Success(cancelled)
}

// WatchExecution handles GET /api/v1/executions/{id}/ws. The stream starts
// with the current state of the execution, carries every later status
// change and closes after the terminal one.
//
// @Summary Watch an execution
// @Description Upgrades to a WebSocket that streams the execution's status changes.
// @Tags Executions
// @Security BearerAuth
// @Param id path string true "Execution ID"
// @Success 101 "Switching protocols"
// @Failure 404 {object} APIResponse "Execution not found"
// @Failure 503 {object} APIResponse "Status stream unavailable"
// @Router /executions/{id}/ws [get]
func (h *Handler) WatchExecution(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.hub == nil {
		rw.ServiceUnavailable("status stream unavailable", nil)
		return
	}
	exec, err := h.visibleExecution(r, caller(r))
	if err != nil {
		rw.ModelError(err)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.hub, conn, exec.ID)
	if !h.hub.Add(client) {
		_ = conn.Close()
		return
	}

	// Re-read after registering so no update between the two is lost.
	snapshot, err := h.executions.Get(r.Context(), exec.ID)
	if err != nil {
		snapshot = exec
	}
	client.Enqueue(ws.Message{Type: ws.MessageTypeExecution, Data: snapshot})
	if snapshot.Status.IsTerminal() {
		h.hub.Remove(client)
	}
	client.Start()
}
