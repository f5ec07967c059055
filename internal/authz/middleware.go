// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/logging"
)

// Middleware guards routes with the enforcer.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates the authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Require rejects requests whose role may not perform act on obj. It must
// run after auth.Middleware.Authenticate.
func (m *Middleware) Require(obj, act string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeForbidden(w, "no authentication context")
				return
			}
			if !m.enforcer.Can(r.Context(), claims.Role, obj, act) {
				writeForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type forbiddenBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code     string `json:"code"`
		Category string `json:"category"`
		Message  string `json:"message"`
	} `json:"error"`
}

func writeForbidden(w http.ResponseWriter, message string) {
	var body forbiddenBody
	body.Error.Code = "FORBIDDEN"
	body.Error.Category = "forbidden"
	body.Error.Message = "Forbidden: " + message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode forbidden response")
	}
}
