// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/models"
)

func newEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEmbeddedPolicy(t *testing.T) {
	t.Parallel()
	e := newEnforcer(t)

	tests := []struct {
		role, obj, act string
		want           bool
	}{
		{"viewer", ObjectHandlers, ActRead, true},
		{"viewer", ObjectResources, ActRead, true},
		{"viewer", ObjectExecutions, ActRead, true},
		{"viewer", ObjectExecutions, "upload", false},
		{"viewer", ObjectExecutions, ActCancel, false},
		{"editor", ObjectExecutions, "upload", true},
		{"editor", ObjectExecutions, "append", true},
		{"editor", ObjectExecutions, "upsert", true},
		{"editor", ObjectExecutions, ActCancel, true},
		{"editor", ObjectHandlers, ActRead, true},
		{"editor", ObjectExecutions, "copy", false},
		{"editor", ObjectExecutions, ActReadAll, false},
		{"admin", ObjectExecutions, "copy", true},
		{"admin", ObjectExecutions, ActReadAll, true},
		{"admin", ObjectResources, ActRead, true},
		{"admin", ObjectAudit, ActRead, true},
		{"editor", ObjectAudit, ActRead, false},
		{"stranger", ObjectHandlers, ActRead, false},
		{"", ObjectHandlers, ActRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.obj+"/"+tt.act, func(t *testing.T) {
			t.Parallel()
			got, err := e.Enforce(tt.role, tt.obj, tt.act)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%q, %q, %q) = %v, want %v", tt.role, tt.obj, tt.act, got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()
	e := newEnforcer(t)
	ctx := context.Background()

	if err := e.Authorize(ctx, "editor", models.ActionUpload); err != nil {
		t.Errorf("Authorize(editor, upload) error = %v", err)
	}
	err := e.Authorize(ctx, "editor", models.ActionCopy)
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("Authorize(editor, copy) error = %v, want ErrForbidden", err)
	}
	if models.CategoryOf(err) != models.CategoryForbidden {
		t.Errorf("category = %q, want forbidden", models.CategoryOf(err))
	}
}

func TestPolicyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.conf")
	policyPath := filepath.Join(dir, "policy.csv")
	if err := os.WriteFile(modelPath, []byte(embeddedModel), 0o600); err != nil {
		t.Fatal(err)
	}
	// Editors may copy under this site policy.
	policy := "p, editor, executions, copy\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(EnforcerConfig{ModelPath: modelPath, PolicyPath: policyPath})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	if err := e.Authorize(context.Background(), "editor", models.ActionCopy); err != nil {
		t.Errorf("Authorize(editor, copy) error = %v", err)
	}
	if err := e.Authorize(context.Background(), "editor", models.ActionUpload); err == nil {
		t.Error("Authorize(editor, upload) error = nil, want forbidden under file policy")
	}
}

func TestNewEnforcerMissingFiles(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "missing.csv")
	if _, err := NewEnforcer(EnforcerConfig{PolicyPath: missing}); err == nil {
		t.Error("NewEnforcer() with missing policy error = nil")
	}
}

func TestLoadEmbeddedPolicyRejectsMalformedLines(t *testing.T) {
	t.Parallel()
	e := newEnforcer(t)
	if err := loadEmbeddedPolicy(e.enforcer, "p, viewer, handlers\n"); err == nil {
		t.Error("loadEmbeddedPolicy() error = nil, want malformed line error")
	}
}

func TestMiddlewareRequire(t *testing.T) {
	t.Parallel()
	mw := NewMiddleware(newEnforcer(t))
	h := mw.Require(ObjectExecutions, ActCancel)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"editor", &auth.Claims{Username: "alice", Role: "editor"}, http.StatusNoContent},
		{"viewer", &auth.Claims{Username: "bob", Role: "viewer"}, http.StatusForbidden},
		{"unauthenticated", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/executions/x", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
