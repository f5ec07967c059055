// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Objects guarded by the policy.
const (
	ObjectExecutions = "executions"
	ObjectResources  = "resources"
	ObjectHandlers   = "handlers"
	ObjectAudit      = "audit"
)

// Actions that are not submission actions.
const (
	ActRead    = "read"
	ActReadAll = "read_all"
	ActCancel  = "cancel"
)

// EnforcerConfig configures the casbin enforcer.
type EnforcerConfig struct {
	// ModelPath and PolicyPath override the embedded model and policy.
	ModelPath  string
	PolicyPath string

	// ReloadInterval polls PolicyPath for changes. Zero disables reloading.
	ReloadInterval time.Duration
}

// Enforcer decides whether a role may act on an object.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
	reload   bool
}

// NewEnforcer loads the model and policy. Files are used when configured,
// the embedded defaults otherwise.
func NewEnforcer(cfg EnforcerConfig) (*Enforcer, error) {
	var m model.Model
	var err error
	if cfg.ModelPath != "" {
		if _, statErr := os.Stat(cfg.ModelPath); statErr != nil {
			return nil, fmt.Errorf("casbin model: %w", statErr)
		}
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		if _, statErr := os.Stat(cfg.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("casbin policy: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{enforcer: enforcer}
	if cfg.PolicyPath != "" && cfg.ReloadInterval > 0 {
		enforcer.StartAutoLoadPolicy(cfg.ReloadInterval)
		e.reload = true
	}
	return e, nil
}

// loadEmbeddedPolicy adds "p" and "g" lines of a policy CSV to enforcer.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Close stops policy reloading.
func (e *Enforcer) Close() {
	if e.reload {
		e.enforcer.StopAutoLoadPolicy()
	}
}

// Enforce reports whether role may perform act on obj.
func (e *Enforcer) Enforce(role, obj, act string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, obj, act)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	metrics.RecordAuthzDecision(role, obj, act, allowed)
	return allowed, nil
}

// Can is Enforce with errors treated as a denial.
func (e *Enforcer) Can(ctx context.Context, role, obj, act string) bool {
	allowed, err := e.Enforce(role, obj, act)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("role", role).Msg("Authorization error")
		return false
	}
	return allowed
}

// Authorize returns models.ErrForbidden unless role may submit action.
func (e *Enforcer) Authorize(ctx context.Context, role string, action models.Action) error {
	if !e.Can(ctx, role, ObjectExecutions, string(action)) {
		return models.Errorf(models.ErrForbidden, "role %q may not %s", role, action)
	}
	return nil
}
