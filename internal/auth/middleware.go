// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/config"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
)

type contextKey string

// ClaimsContextKey is the context key holding the authenticated *Claims.
const ClaimsContextKey contextKey = "claims"

// TokenCookie is the cookie consulted when no Authorization header is sent.
// Browsers cannot set headers on websocket upgrades.
const TokenCookie = "token"

// ClaimsFromContext returns the authenticated caller.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims returns ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// Middleware authenticates API requests.
type Middleware struct {
	jwtManager    *JWTManager
	authMode      string
	defaultRole   string
	anonymousUser string
}

// NewMiddleware creates the authentication middleware. jwtManager may be
// nil when cfg.AuthMode is none.
func NewMiddleware(jwtManager *JWTManager, cfg *config.SecurityConfig) *Middleware {
	return &Middleware{
		jwtManager:    jwtManager,
		authMode:      cfg.AuthMode,
		defaultRole:   cfg.DefaultRole,
		anonymousUser: cfg.AnonymousUser,
	}
}

// Authenticate resolves the caller and stores its claims in the request
// context. With auth mode none every request runs as the anonymous user
// with the default role.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == config.AuthModeNone {
			claims := &Claims{Username: m.anonymousUser, Role: m.defaultRole}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			return
		}

		token, err := extractJWTToken(r)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			writeUnauthorized(w, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			writeUnauthorized(w, "invalid token")
			return
		}
		if claims.Role == "" {
			claims.Role = m.defaultRole
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func extractJWTToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			return "", fmt.Errorf("missing token")
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

type unauthorizedBody struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	var body unauthorizedBody
	body.Error.Code = "UNAUTHORIZED"
	body.Error.Message = "Unauthorized: " + message
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="geoimport"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode unauthorized response")
	}
}
