// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package audit

import (
	"context"
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventTypeSubmitted EventType = "execution.submitted"
	EventTypeRejected  EventType = "execution.rejected"
	EventTypeCancelled EventType = "execution.cancelled"
	EventTypeDenied    EventType = "authz.denied"
)

// Outcome indicates whether an action succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Event is one entry of the audit trail.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Outcome   Outcome   `json:"outcome"`
	Actor     Actor     `json:"actor"`

	// Action is the submission action or API operation.
	Action      string `json:"action"`
	ExecutionID string `json:"execution_id,omitempty"`
	HandlerID   string `json:"handler_id,omitempty"`

	// Category is the error category of a failure.
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`

	SourceIP      string `json:"source_ip,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Actor is the authenticated caller.
type Actor struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Store persists audit events.
type Store interface {
	Save(ctx context.Context, event *Event) error
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Delete removes events older than the cutoff and returns how many.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// QueryFilter selects audit events. Zero fields match everything.
// Results are newest first.
type QueryFilter struct {
	Types       []EventType `json:"types,omitempty"`
	Actor       string      `json:"actor,omitempty"`
	ExecutionID string      `json:"execution_id,omitempty"`
	Since       *time.Time  `json:"since,omitempty"`
	Limit       int         `json:"limit,omitempty"`
}

// DefaultLimit applies when a filter has no limit.
const DefaultLimit = 100

// MaxLimit caps the page size of a query.
const MaxLimit = 1000

func (f QueryFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

func (f QueryFilter) matches(e *Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Actor != "" && e.Actor.Name != f.Actor {
		return false
	}
	if f.ExecutionID != "" && e.ExecutionID != f.ExecutionID {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	return true
}
