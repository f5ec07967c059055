// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package limiter provides admission control over concurrently running
// imports.
//
// A ceiling of 0 rejects every request and is the supported way to pause
// ingestion.
package limiter

import (
	"context"
	"fmt"

	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// Scope selects whose executions count against the ceiling.
type Scope string

const (
	// ScopeUser counts only the requesting user's executions.
	ScopeUser Scope = "user"

	// ScopeSystem counts every user's executions.
	ScopeSystem Scope = "system"
)

// Counter counts executions that are admitted but not yet terminal.
// An empty user means every user.
type Counter interface {
	CountActive(ctx context.Context, user string) (int, error)
}

// Limiter enforces the parallelism ceiling. It never mutates state.
type Limiter struct {
	ceiling int
	perUser map[string]int
	scope   Scope
	counter Counter
}

// New creates a Limiter. perUser overrides the ceiling for individual users.
func New(ceiling int, perUser map[string]int, scope Scope, counter Counter) *Limiter {
	if scope == "" {
		scope = ScopeUser
	}
	overrides := make(map[string]int, len(perUser))
	for u, c := range perUser {
		overrides[u] = c
	}
	return &Limiter{
		ceiling: ceiling,
		perUser: overrides,
		scope:   scope,
		counter: counter,
	}
}

// CeilingFor returns the ceiling that applies to user.
func (l *Limiter) CeilingFor(user string) int {
	if c, ok := l.perUser[user]; ok {
		return c
	}
	return l.ceiling
}

// ValidateParallelismLimitPerUser fails with ErrParallelismLimit when the
// number of active executions in scope has reached the ceiling for user.
func (l *Limiter) ValidateParallelismLimitPerUser(ctx context.Context, user string) error {
	ceiling := l.CeilingFor(user)
	if ceiling <= 0 {
		metrics.ParallelismRejections.WithLabelValues(string(l.scope)).Inc()
		return models.Errorf(models.ErrParallelismLimit, "uploads are currently disabled (limit 0)")
	}

	owner := user
	if l.scope == ScopeSystem {
		owner = ""
	}
	count, err := l.counter.CountActive(ctx, owner)
	if err != nil {
		return fmt.Errorf("count active executions: %w", err)
	}

	if count >= ceiling {
		metrics.ParallelismRejections.WithLabelValues(string(l.scope)).Inc()
		if l.scope == ScopeSystem {
			return models.Errorf(models.ErrParallelismLimit,
				"the system has reached the limit of %d concurrent uploads, try later", ceiling)
		}
		return models.Errorf(models.ErrParallelismLimit,
			"user %s has reached the limit of %d concurrent uploads, try later", user, ceiling)
	}
	return nil
}
