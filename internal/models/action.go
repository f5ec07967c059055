// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package models

import (
	"fmt"
	"strings"
)

// Action is the kind of operation an execution performs.
type Action string

const (
	// ActionUpload imports a new dataset from an uploaded file set.
	ActionUpload Action = "upload"

	// ActionCopy duplicates an existing resource into a new layer.
	ActionCopy Action = "copy"

	// ActionAppend adds features from a file set to an existing resource.
	ActionAppend Action = "append"

	// ActionUpsert inserts or updates features of an existing resource by key.
	ActionUpsert Action = "upsert"
)

// AllActions returns every supported action in a stable order.
func AllActions() []Action {
	return []Action{ActionUpload, ActionCopy, ActionAppend, ActionUpsert}
}

// Valid reports whether a is one of the supported actions.
func (a Action) Valid() bool {
	switch a {
	case ActionUpload, ActionCopy, ActionAppend, ActionUpsert:
		return true
	}
	return false
}

// TargetsExistingResource reports whether the action operates on a resource
// that already exists in the catalog.
func (a Action) TargetsExistingResource() bool {
	return a == ActionCopy || a == ActionAppend || a == ActionUpsert
}

// ParseAction converts a request value into an Action. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", Errorf(ErrUnsupportedAction, "unsupported action %q", s)
	}
	return a, nil
}

func (a Action) String() string {
	return string(a)
}

// Status is the lifecycle state of an execution.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further step may run for the execution.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// IsActive reports whether the execution counts against the parallelism limit.
func (s Status) IsActive() bool {
	return s == StatusCreated || s == StatusRunning
}

// ParseStatus converts a stored or query value into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusCreated, StatusRunning, StatusSucceeded, StatusFailed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown execution status %q", s)
}
