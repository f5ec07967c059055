// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/handler"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// SubmitRequest is an incoming upload, copy, append or upsert.
type SubmitRequest struct {
	User   string
	Role   string
	Action string

	// Files maps roles to staged paths. Empty for copy.
	Files fileset.FileSet

	// Data holds the raw request parameters.
	Data map[string]string
}

// Submit validates the request and, when it is admissible, persists a new
// execution and dispatches its first step. Validation and quota errors are
// returned before anything is stored.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*models.Execution, error) {
	exec, err := o.submit(ctx, req)
	metrics.RecordSubmission(req.Action, submissionOutcome(err))
	if err != nil {
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("user", req.User).
			Str("action", req.Action).
			Msg("Submission rejected")
		return nil, err
	}
	return exec, nil
}

func (o *Orchestrator) submit(ctx context.Context, req SubmitRequest) (*models.Execution, error) {
	action, err := models.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}
	if o.authorizer != nil {
		if err := o.authorizer.Authorize(ctx, req.Role, action); err != nil {
			return nil, err
		}
	}

	in := handler.Input{Action: action, Files: req.Files, Data: req.Data}
	if action.TargetsExistingResource() {
		pk := req.Data["resource_pk"]
		if pk == "" && action == models.ActionCopy {
			// A copy has no files to select a handler by.
			return nil, models.Errorf(models.ErrInvalidParams, "resource_pk is required")
		}
		if pk != "" {
			src, err := o.catalog.GetResource(ctx, pk)
			if err != nil {
				return nil, err
			}
			if action == models.ActionCopy {
				in.HandlerID = src.HandlerID
			}
		}
	}
	if action != models.ActionCopy {
		if err := req.Files.CheckExists(); err != nil {
			return nil, err
		}
	}

	h, err := o.registry.FindHandler(in)
	if err != nil {
		return nil, err
	}
	if ids := o.registry.Ambiguous(in); len(ids) > 1 {
		logging.Ctx(ctx).Debug().Strs("handlers", ids).Str("selected", h.ID()).Msg("Input matched several handlers")
	}

	return o.admit(ctx, req.User, in, h)
}

// admit runs the handler checks and creates the execution under admitMu so
// concurrent submissions from one user cannot both pass the parallelism
// check with a single slot left.
func (o *Orchestrator) admit(ctx context.Context, user string, in handler.Input, h handler.Handler) (*models.Execution, error) {
	o.admitMu.Lock()
	defer o.admitMu.Unlock()

	if err := h.IsValid(ctx, in, user); err != nil {
		return nil, err
	}
	params, err := h.ExtractParams(in)
	if err != nil {
		return nil, err
	}

	exec := &models.Execution{
		ID:        uuid.New().String(),
		User:      user,
		Action:    in.Action,
		HandlerID: h.ID(),
		Params:    params,
		Files:     in.Files.ToMap(),
		Steps:     h.Steps(in.Action),
		Status:    models.StatusCreated,
	}
	if len(exec.Steps) == 0 {
		return nil, models.Errorf(models.ErrUnsupportedAction, "handler %s declares no steps for %s", h.ID(), in.Action)
	}
	if err := o.store.CreateExecution(ctx, exec); err != nil {
		return nil, err
	}
	metrics.ExecutionsActive.Inc()

	ctx = logging.ContextWithExecutionID(ctx, exec.ID)
	logging.Ctx(ctx).Info().
		Str("user", user).
		Str("action", string(exec.Action)).
		Str("handler", exec.HandlerID).
		Msg("Execution created")

	task := models.Task{ExecutionID: exec.ID, Step: exec.Steps[0], Index: 0}
	if err := o.dispatch(ctx, task); err != nil {
		derr := models.Wrap(models.ErrStepFailed, err, "dispatch first step").WithStep(task.Step)
		o.fail(ctx, exec.ID, task.Step, derr)
		return nil, derr
	}
	return exec.Clone(), nil
}

func (o *Orchestrator) dispatch(ctx context.Context, task models.Task) error {
	if o.dispatcher == nil {
		return errors.New("pipeline: no dispatcher configured")
	}
	return o.dispatcher.Dispatch(ctx, task)
}

func submissionOutcome(err error) string {
	if err == nil {
		return "accepted"
	}
	switch models.CategoryOf(err) {
	case models.CategoryValidation, models.CategoryNotFound:
		return "validation"
	case models.CategoryQuota:
		return "quota"
	case models.CategoryForbidden:
		return "forbidden"
	}
	return "error"
}
