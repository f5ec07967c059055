// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package models

import (
	"maps"
	"slices"
	"time"
)

// Params are the optional parameters declared with a request.
type Params struct {
	// ResourcePK identifies the existing resource for copy, append and upsert.
	ResourcePK string `json:"resource_pk,omitempty"`

	// OverwriteExistingLayer reuses an existing layer name and replaces its table.
	OverwriteExistingLayer bool `json:"overwrite_existing_layer,omitempty"`

	// SkipExistingLayers reuses an existing resource instead of importing again.
	SkipExistingLayers bool `json:"skip_existing_layers,omitempty"`

	// StoreSpatialFiles retains the original files in object storage.
	StoreSpatialFiles bool `json:"store_spatial_files,omitempty"`

	// UpsertKey is the attribute matched when upserting features.
	UpsertKey string `json:"upsert_key,omitempty"`

	// Title is the display title for the created resource.
	Title string `json:"title,omitempty"`
}

// Well-known keys of Execution.Outputs.
const (
	OutputAlternate      = "alternate"
	OutputOriginalName   = "original_name"
	OutputResourceID     = "resource_id"
	OutputGeometryType   = "geometry_type"
	OutputFeatureCount   = "feature_count"
	OutputSourceTable    = "source_table"
	OutputSkipped        = "skipped"
	OutputStagedLocation = "staged_location"
	OutputStagingTable   = "staging_table"
	OutputBBox           = "bbox"
)

// Execution is the persisted record of one upload, copy, append or upsert.
type Execution struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	Action    Action `json:"action"`
	HandlerID string `json:"handler_id"`
	Params    Params `json:"params"`

	// Files maps file roles (base_file, dbf_file, ...) to staged paths.
	Files map[string]string `json:"files,omitempty"`

	// Steps is the declared step sequence. Step is the step currently
	// running, or the last step attempted once the execution is terminal.
	Steps          []string `json:"steps"`
	Step           string   `json:"step,omitempty"`
	CompletedSteps []string `json:"completed_steps,omitempty"`

	Status  Status            `json:"status"`
	Outputs map[string]string `json:"outputs,omitempty"`
	Error   *ErrorDetail      `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// IsCompleted reports whether step has already finished successfully.
func (e *Execution) IsCompleted(step string) bool {
	return slices.Contains(e.CompletedSteps, step)
}

// NextStep returns the first declared step that has not completed, its
// index, and false when every step is done.
func (e *Execution) NextStep() (string, int, bool) {
	for i, s := range e.Steps {
		if !e.IsCompleted(s) {
			return s, i, true
		}
	}
	return "", len(e.Steps), false
}

// Output returns an output value or "".
func (e *Execution) Output(key string) string {
	if e.Outputs == nil {
		return ""
	}
	return e.Outputs[key]
}

// Clone returns a deep copy so stores can hand out records without sharing maps.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	c := *e
	c.Files = maps.Clone(e.Files)
	c.Outputs = maps.Clone(e.Outputs)
	c.Steps = slices.Clone(e.Steps)
	c.CompletedSteps = slices.Clone(e.CompletedSteps)
	if e.Error != nil {
		d := *e.Error
		c.Error = &d
	}
	if e.FinishedAt != nil {
		t := *e.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// Task is one pipeline step handed to the dispatcher. Delivery is
// at-least-once, so the same task may be handled more than once.
type Task struct {
	ExecutionID string `json:"execution_id"`
	Step        string `json:"step"`
	Index       int    `json:"index"`
	Attempt     int    `json:"attempt,omitempty"`
}

// Key identifies the task for deduplication: "<execution_id>:<step>".
func (t Task) Key() string {
	return t.ExecutionID + ":" + t.Step
}
