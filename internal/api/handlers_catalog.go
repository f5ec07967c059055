// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geoimport/internal/authz"
	"github.com/tomtom215/geoimport/internal/models"
)

// Handlers handles GET /api/v1/handlers, the capability listing clients use
// to decide which files to offer for upload.
//
// @Summary List import handlers
// @Description Returns the registered handlers with the formats and actions each supports.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=[]handler.Descriptor} "Handlers"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Router /handlers [get]
func (h *Handler) Handlers(w http.ResponseWriter, r *http.Request) {
	descriptors := h.capabilities.Descriptors()
	NewResponseWriter(w, r).List(descriptors, len(descriptors))
}

// ListResources handles GET /api/v1/resources. Callers see the resources
// they own; with ?all=true callers allowed to read all see every resource.
//
// @Summary List resources
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param all query bool false "List the resources of every owner"
// @Success 200 {object} APIResponse{data=[]models.Resource} "Resources"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Listing all resources is not permitted"
// @Router /resources [get]
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims := caller(r)

	owner := claims.Username
	if r.URL.Query().Get("all") == "true" {
		if !h.canSeeAll(r, claims, authz.ObjectResources) {
			rw.Forbidden("listing all resources is not permitted")
			return
		}
		owner = ""
	}

	resources, err := h.resources.ListResources(r.Context(), owner)
	if err != nil {
		rw.ModelError(err)
		return
	}
	if resources == nil {
		resources = []*models.Resource{}
	}
	rw.List(resources, len(resources))
}

// GetResource handles GET /api/v1/resources/{id}. Published resources are
// readable by every caller allowed to read resources.
//
// @Summary Get a resource
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} APIResponse{data=models.Resource} "Resource"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Resource not found"
// @Router /resources/{id} [get]
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	res, err := h.resources.GetResource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rw.ModelError(err)
		return
	}
	rw.Success(res)
}
