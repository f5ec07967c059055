// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/authz"
	"github.com/tomtom215/geoimport/internal/middleware"
)

// Router sets up HTTP routes using the chi router.
type Router struct {
	handler         *Handler
	authMiddleware  *auth.Middleware
	authzMiddleware *authz.Middleware
	chiMiddleware   *ChiMiddleware
}

// NewRouter creates a new router.
func NewRouter(h *Handler, authn *auth.Middleware, authzMw *authz.Middleware, chiMw *ChiMiddleware) *Router {
	return &Router{
		handler:         h,
		authMiddleware:  authn,
		authzMiddleware: authzMw,
		chiMiddleware:   chiMw,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("no such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMiddleware.Authenticate)

		require := router.authzMiddleware.Require

		r.With(require(authz.ObjectHandlers, authz.ActRead)).Get("/handlers", router.handler.Handlers)

		r.With(require(authz.ObjectResources, authz.ActRead)).Get("/resources", router.handler.ListResources)
		r.With(require(authz.ObjectResources, authz.ActRead)).Get("/resources/{id}", router.handler.GetResource)

		// Submissions are authorized per action by the pipeline, since the
		// action is only known once the body is parsed.
		submit := router.chiMiddleware.RateLimitUpload()
		r.With(submit).Post("/uploads", router.handler.Upload)

		r.With(require(authz.ObjectAudit, authz.ActRead)).Get("/audit", router.handler.AuditEvents)

		r.Route("/executions", func(r chi.Router) {
			r.With(submit).Post("/", router.handler.CreateExecution)
			r.With(require(authz.ObjectExecutions, authz.ActRead)).Get("/", router.handler.ListExecutions)
			r.With(require(authz.ObjectExecutions, authz.ActRead)).Get("/{id}", router.handler.GetExecution)
			r.With(require(authz.ObjectExecutions, authz.ActRead)).Get("/{id}/ws", router.handler.WatchExecution)
			r.With(require(authz.ObjectExecutions, authz.ActCancel)).Delete("/{id}", router.handler.CancelExecution)
		})
	})

	return r
}
