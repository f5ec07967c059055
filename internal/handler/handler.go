// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"context"
	"slices"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// Input is the request descriptor every handler capability query consumes.
type Input struct {
	Action models.Action
	Files  fileset.FileSet

	// Data holds the raw request parameters (form values or JSON fields).
	Data map[string]string

	// HandlerID names the handler of the source resource for actions that
	// operate on an existing resource without uploading files.
	HandlerID string
}

// Descriptor is the static capability description of a handler.
type Descriptor struct {
	ID               string           `json:"id"`
	Formats          []fileset.Format `json:"formats"`
	SupportedActions []models.Action  `json:"supported_actions"`
	Category         string           `json:"category"`
}

// Clone returns a deep copy so callers cannot mutate a registered descriptor.
func (d Descriptor) Clone() Descriptor {
	formats := make([]fileset.Format, len(d.Formats))
	for i, f := range d.Formats {
		formats[i] = fileset.Format{
			Label:       f.Label,
			Ext:         slices.Clone(f.Ext),
			RequiredExt: slices.Clone(f.RequiredExt),
			OptionalExt: slices.Clone(f.OptionalExt),
		}
	}
	d.Formats = formats
	d.SupportedActions = slices.Clone(d.SupportedActions)
	return d
}

// Handler processes one family of geospatial formats.
type Handler interface {
	// ID is the unique registry key.
	ID() string

	// Descriptor returns the capability description.
	Descriptor() Descriptor

	// CanHandle reports whether the handler recognises the input.
	CanHandle(in Input) bool

	// CanDo reports whether the handler supports the action.
	CanDo(action models.Action) bool

	// Serializer returns the request serializer for the input, if the
	// handler has a specialised one.
	Serializer(in Input) (Serializer, bool)

	// IsValid checks the parallelism limit for user and then the
	// structural validity of the input.
	IsValid(ctx context.Context, in Input, user string) error

	// ExtractParams validates and normalises the request parameters.
	ExtractParams(in Input) (models.Params, error)

	// Steps returns the pipeline step sequence for action.
	Steps(action models.Action) []string

	// ImportCommand builds the conversion command for an execution whose
	// start step has recorded its target layer.
	ImportCommand(ctx context.Context, exec *models.Execution) (*ogr.Command, error)
}

// ParallelismChecker is the admission check handlers run first in IsValid.
type ParallelismChecker interface {
	ValidateParallelismLimitPerUser(ctx context.Context, user string) error
}

// vectorHandler holds what the vector handlers share.
type vectorHandler struct {
	desc    Descriptor
	builder *ogr.Builder
	limiter ParallelismChecker
}

func (h *vectorHandler) ID() string {
	return h.desc.ID
}

func (h *vectorHandler) Descriptor() Descriptor {
	return h.desc.Clone()
}

func (h *vectorHandler) CanDo(action models.Action) bool {
	return slices.Contains(h.desc.SupportedActions, action)
}

func (h *vectorHandler) Steps(action models.Action) []string {
	if !h.CanDo(action) {
		return nil
	}
	return models.StepsFor(action)
}

// matches reports whether the input names this handler or carries a base
// file of one of its formats.
func (h *vectorHandler) matches(in Input) bool {
	if in.HandlerID != "" {
		return in.HandlerID == h.desc.ID
	}
	for _, f := range h.desc.Formats {
		if f.Matches(in.Files) {
			return true
		}
	}
	return false
}

func (h *vectorHandler) Serializer(in Input) (Serializer, bool) {
	if in.Action == models.ActionCopy {
		return CopySerializer{}, true
	}
	return UploadSerializer{}, true
}

func (h *vectorHandler) ExtractParams(in Input) (models.Params, error) {
	s, ok := h.Serializer(in)
	if !ok {
		return models.Params{}, nil
	}
	return s.Parse(in)
}

// checkAdmission runs the checks common to every format, in order:
// parallelism limit, then action support.
func (h *vectorHandler) checkAdmission(ctx context.Context, in Input, user string) error {
	if h.limiter != nil {
		if err := h.limiter.ValidateParallelismLimitPerUser(ctx, user); err != nil {
			return err
		}
	}
	if !h.CanDo(in.Action) {
		return models.Errorf(models.ErrUnsupportedAction, "handler %s does not support %s", h.desc.ID, in.Action)
	}
	return nil
}

// target returns the layer the conversion writes to and the table mode.
// Append and upsert load into a per-execution staging layer that the import
// step merges afterwards. Uploads write the alternate reserved for the
// execution. Either way the table belongs to this execution alone, so a
// redelivered import replaces whatever a previous attempt left behind.
func target(exec *models.Execution) (string, ogr.Mode) {
	if exec.Action == models.ActionAppend || exec.Action == models.ActionUpsert {
		return exec.Output(models.OutputStagingTable), ogr.ModeOverwrite
	}
	return exec.Output(models.OutputAlternate), ogr.ModeOverwrite
}
