// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package store

import (
	"maps"
	"sort"
	"time"

	"github.com/tomtom215/geoimport/internal/models"
)

// Notifier receives a copy of every committed execution record.
type Notifier interface {
	NotifyExecution(exec *models.Execution)
}

// mutation changes an execution in place. A non-nil error aborts the write.
type mutation func(e *models.Execution, now time.Time) error

func checkOpen(e *models.Execution) error {
	if e.Status.IsTerminal() {
		return models.Errorf(models.ErrExecutionFinished, "execution %s is %s", e.ID, e.Status)
	}
	return nil
}

func startStep(step string) mutation {
	return func(e *models.Execution, _ time.Time) error {
		if err := checkOpen(e); err != nil {
			return err
		}
		e.Status = models.StatusRunning
		e.Step = step
		return nil
	}
}

func advanceStep(step string, outputs map[string]string) mutation {
	return func(e *models.Execution, _ time.Time) error {
		if err := checkOpen(e); err != nil {
			return err
		}
		if !e.IsCompleted(step) {
			e.CompletedSteps = append(e.CompletedSteps, step)
		}
		e.Outputs = mergeOutputs(e.Outputs, outputs)
		e.Step = step
		return nil
	}
}

func failExecution(step string, detail *models.ErrorDetail) mutation {
	return func(e *models.Execution, now time.Time) error {
		if err := checkOpen(e); err != nil {
			return err
		}
		e.Status = models.StatusFailed
		e.Step = step
		e.Error = detail
		e.FinishedAt = &now
		return nil
	}
}

func completeExecution(outputs map[string]string) mutation {
	return func(e *models.Execution, now time.Time) error {
		if err := checkOpen(e); err != nil {
			return err
		}
		e.Outputs = mergeOutputs(e.Outputs, outputs)
		e.Status = models.StatusSucceeded
		e.FinishedAt = &now
		return nil
	}
}

func cancelExecution() mutation {
	return func(e *models.Execution, now time.Time) error {
		if err := checkOpen(e); err != nil {
			return err
		}
		e.Status = models.StatusCancelled
		e.Error = &models.ErrorDetail{
			Category:   models.CategoryCancelled,
			Code:       models.ErrCancelled.Code,
			Message:    "cancelled by request",
			FailedStep: e.Step,
		}
		e.FinishedAt = &now
		return nil
	}
}

func mergeOutputs(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// sortNewestFirst orders executions by creation time, newest first.
func sortOldestFirst(execs []*models.Execution) {
	sort.Slice(execs, func(i, j int) bool {
		if execs[i].CreatedAt.Equal(execs[j].CreatedAt) {
			return execs[i].ID < execs[j].ID
		}
		return execs[i].CreatedAt.Before(execs[j].CreatedAt)
	})
}

func sortNewestFirst(execs []*models.Execution) {
	sort.Slice(execs, func(i, j int) bool {
		if execs[i].CreatedAt.Equal(execs[j].CreatedAt) {
			return execs[i].ID > execs[j].ID
		}
		return execs[i].CreatedAt.After(execs[j].CreatedAt)
	})
}
