// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package pipeline

import (
	"context"
	"errors"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// HandleTask runs one step of an execution. A nil return acknowledges the
// task: step failures are recorded on the execution, not returned. An
// error is returned only when the task should be delivered again.
func (o *Orchestrator) HandleTask(ctx context.Context, task models.Task) error {
	ctx = logging.ContextWithExecutionID(ctx, task.ExecutionID)
	ctx = logging.ContextWithStep(ctx, task.Step)
	log := logging.Ctx(ctx)

	exec, err := o.store.Get(ctx, task.ExecutionID)
	if errors.Is(err, models.ErrExecutionNotFound) {
		log.Warn().Msg("Task for unknown execution dropped")
		return nil
	}
	if err != nil {
		return err
	}

	switch {
	case exec.Status.IsTerminal():
		o.skip(ctx, "terminal", exec)
		return nil

	case exec.IsCompleted(task.Step):
		o.skip(ctx, "completed", exec)
		// The follow-up task may have been lost between persisting this
		// step and dispatching the next one.
		if exec.Step == task.Step {
			return o.continueWith(ctx, exec)
		}
		return nil
	}

	next, _, ok := exec.NextStep()
	if !ok {
		return o.continueWith(ctx, exec)
	}
	if next != task.Step {
		o.skip(ctx, "out_of_order", exec)
		return nil
	}
	if exec.Status == models.StatusRunning && exec.Step == task.Step && o.isRunning(exec.ID) {
		o.skip(ctx, "in_progress", exec)
		return nil
	}

	exec, err = o.store.StartStep(ctx, exec.ID, task.Step)
	if errors.Is(err, models.ErrExecutionFinished) {
		o.skip(ctx, "terminal", nil)
		return nil
	}
	if err != nil {
		return err
	}

	outputs, err := o.execute(ctx, exec, task.Step)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown, not a step failure. Leave the execution running so
			// the redelivered task resumes it.
			log.Warn().Err(err).Msg("Step interrupted by shutdown")
			return ctx.Err()
		}
		o.fail(ctx, exec.ID, task.Step, err)
		return nil
	}

	exec, err = o.store.AdvanceStep(ctx, exec.ID, task.Step, outputs)
	if errors.Is(err, models.ErrExecutionFinished) {
		log.Info().Msg("Execution finished while step was running, result discarded")
		return nil
	}
	if err != nil {
		return err
	}
	log.Debug().Msg("Step completed")
	return o.continueWith(ctx, exec)
}

// execute runs the body of step under a context Cancel can abort.
func (o *Orchestrator) execute(ctx context.Context, exec *models.Execution, step string) (map[string]string, error) {
	fn, ok := o.steps[step]
	if !ok {
		return nil, models.Errorf(models.ErrStepFailed, "unknown step %q", step).WithStep(step)
	}

	stepCtx, cancel := context.WithCancel(ctx)
	o.trackRunning(exec.ID, cancel)
	defer func() {
		o.untrackRunning(exec.ID)
		cancel()
	}()

	start := o.now()
	outputs, err := fn(stepCtx, exec)
	metrics.RecordStep(step, o.now().Sub(start), err)

	if err != nil && stepCtx.Err() != nil && ctx.Err() == nil && !errors.Is(err, models.ErrCancelled) {
		err = models.Wrap(models.ErrCancelled, err, "step cancelled")
	}
	return outputs, err
}

// continueWith dispatches the first step exec has not completed, or
// completes exec when none is left.
func (o *Orchestrator) continueWith(ctx context.Context, exec *models.Execution) error {
	step, idx, ok := exec.NextStep()
	if !ok {
		done, err := o.store.CompleteExecution(ctx, exec.ID, nil)
		if errors.Is(err, models.ErrExecutionFinished) {
			return nil
		}
		if err != nil {
			return err
		}
		o.finished(done)
		logging.Ctx(ctx).Info().
			Str("alternate", done.Output(models.OutputAlternate)).
			Str("resource_id", done.Output(models.OutputResourceID)).
			Msg("Execution succeeded")
		return nil
	}

	task := models.Task{ExecutionID: exec.ID, Step: step, Index: idx}
	if err := o.dispatch(ctx, task); err != nil {
		o.fail(ctx, exec.ID, step, models.Wrap(models.ErrStepFailed, err, "dispatch step").WithStep(step))
	}
	return nil
}

// fail marks the execution failed at step and releases what it reserved.
// Completed steps are not undone.
func (o *Orchestrator) fail(ctx context.Context, id, step string, cause error) {
	log := logging.Ctx(ctx)
	detail := models.DetailOf(cause, step)

	exec, err := o.store.FailExecution(ctx, id, step, detail)
	if errors.Is(err, models.ErrExecutionFinished) {
		log.Debug().Err(cause).Msg("Step error after execution finished ignored")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to record step failure")
		return
	}

	log.Error().
		Err(cause).
		Str("category", string(detail.Category)).
		Str("code", detail.Code).
		Str("failed_step", detail.FailedStep).
		Msg("Execution failed")
	o.finished(exec)
	o.cleanup(ctx, exec)
}

// TaskDropped fails the execution of a task the dispatcher gave up on
// after its retries, so the execution does not stay active forever.
func (o *Orchestrator) TaskDropped(ctx context.Context, task models.Task, cause error) {
	ctx = logging.ContextWithExecutionID(ctx, task.ExecutionID)
	ctx = logging.ContextWithStep(ctx, task.Step)
	o.fail(ctx, task.ExecutionID, task.Step,
		models.Wrap(models.ErrStepFailed, cause, "task dropped after retries").WithStep(task.Step))
}

// Resume dispatches the next step of every execution left active by an
// earlier process. Tasks that were queued or running when it stopped are
// lost with it; the HandleTask guards make a duplicate of one that
// survived harmless.
func (o *Orchestrator) Resume(ctx context.Context) (int, error) {
	execs, err := o.store.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	for _, exec := range execs {
		ctx := logging.ContextWithExecutionID(ctx, exec.ID)
		metrics.ExecutionsActive.Inc()
		if err := o.continueWith(ctx, exec); err != nil {
			return 0, err
		}
		logging.Ctx(ctx).Info().Str("status", string(exec.Status)).Str("step", exec.Step).Msg("Execution resumed")
	}
	return len(execs), nil
}

// Cancel marks the execution cancelled and aborts its running step.
func (o *Orchestrator) Cancel(ctx context.Context, id string) (*models.Execution, error) {
	exec, err := o.store.CancelExecution(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = logging.ContextWithExecutionID(ctx, id)
	aborted := o.cancelRunning(id)
	logging.Ctx(ctx).Info().Bool("aborted_running_step", aborted).Str("step", exec.Step).Msg("Execution cancelled")

	o.finished(exec)
	o.cleanup(ctx, exec)
	return exec, nil
}

func (o *Orchestrator) cleanup(ctx context.Context, exec *models.Execution) {
	if err := o.catalog.ReleaseAlternates(ctx, exec.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to release layer name reservations")
	}
	if staging := exec.Output(models.OutputStagingTable); staging != "" && o.datastore != nil {
		if err := o.datastore.DropTable(ctx, staging); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("table", staging).Msg("Failed to drop staging table")
		}
	}
}

func (o *Orchestrator) finished(exec *models.Execution) {
	metrics.ExecutionsActive.Dec()
	metrics.RecordExecutionFinished(string(exec.Action), string(exec.Status))
}

func (o *Orchestrator) skip(ctx context.Context, reason string, exec *models.Execution) {
	metrics.TasksSkipped.WithLabelValues(reason).Inc()
	ev := logging.Ctx(ctx).Debug().Str("reason", reason)
	if exec != nil {
		ev = ev.Str("status", string(exec.Status)).Str("current_step", exec.Step)
	}
	ev.Msg("Task skipped")
}
