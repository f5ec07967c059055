// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/geoimport/internal/models"
)

// MemoryStore keeps executions in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	execs  map[string]*models.Execution
	notify Notifier
	now    func() time.Time
}

// NewMemoryStore creates an empty store. notify may be nil.
func NewMemoryStore(notify Notifier) *MemoryStore {
	return &MemoryStore{
		execs:  make(map[string]*models.Execution),
		notify: notify,
		now:    time.Now,
	}
}

// CreateExecution stores a new execution.
func (s *MemoryStore) CreateExecution(ctx context.Context, exec *models.Execution) error {
	s.mu.Lock()
	if _, ok := s.execs[exec.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("execution %s already exists", exec.ID)
	}
	now := s.now().UTC()
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = now
	}
	exec.UpdatedAt = now
	if exec.Status == "" {
		exec.Status = models.StatusCreated
	}
	stored := exec.Clone()
	s.execs[exec.ID] = stored
	snapshot := stored.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	return nil
}

// Get retrieves an execution by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exec, ok := s.execs[id]
	if !ok {
		return nil, models.Errorf(models.ErrExecutionNotFound, "execution %s not found", id)
	}
	return exec.Clone(), nil
}

func (s *MemoryStore) update(id string, m mutation) (*models.Execution, error) {
	s.mu.Lock()
	stored, ok := s.execs[id]
	if !ok {
		s.mu.Unlock()
		return nil, models.Errorf(models.ErrExecutionNotFound, "execution %s not found", id)
	}

	// Mutate a copy so a failed mutation leaves the record untouched.
	exec := stored.Clone()
	now := s.now().UTC()
	if err := m(exec, now); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	exec.UpdatedAt = now
	s.execs[id] = exec
	snapshot := exec.Clone()
	s.mu.Unlock()

	s.publish(snapshot)
	return snapshot.Clone(), nil
}

// StartStep marks the execution running at step.
func (s *MemoryStore) StartStep(ctx context.Context, id, step string) (*models.Execution, error) {
	return s.update(id, startStep(step))
}

// AdvanceStep records step as completed and merges its outputs.
func (s *MemoryStore) AdvanceStep(ctx context.Context, id, step string, outputs map[string]string) (*models.Execution, error) {
	return s.update(id, advanceStep(step, outputs))
}

// FailExecution marks the execution failed at step.
func (s *MemoryStore) FailExecution(ctx context.Context, id, step string, detail *models.ErrorDetail) (*models.Execution, error) {
	return s.update(id, failExecution(step, detail))
}

// CompleteExecution marks the execution succeeded.
func (s *MemoryStore) CompleteExecution(ctx context.Context, id string, outputs map[string]string) (*models.Execution, error) {
	return s.update(id, completeExecution(outputs))
}

// CancelExecution marks the execution cancelled.
func (s *MemoryStore) CancelExecution(ctx context.Context, id string) (*models.Execution, error) {
	return s.update(id, cancelExecution())
}

// List returns the executions of user, newest first.
func (s *MemoryStore) List(ctx context.Context, user string) ([]*models.Execution, error) {
	s.mu.RLock()
	var execs []*models.Execution
	for _, e := range s.execs {
		if user == "" || e.User == user {
			execs = append(execs, e.Clone())
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(execs)
	return execs, nil
}

// ListActive returns every created or running execution, oldest first.
func (s *MemoryStore) ListActive(ctx context.Context) ([]*models.Execution, error) {
	s.mu.RLock()
	var execs []*models.Execution
	for _, e := range s.execs {
		if e.Status.IsActive() {
			execs = append(execs, e.Clone())
		}
	}
	s.mu.RUnlock()

	sortOldestFirst(execs)
	return execs, nil
}

// CountActive counts the created or running executions of user.
func (s *MemoryStore) CountActive(ctx context.Context, user string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.execs {
		if e.Status.IsActive() && (user == "" || e.User == user) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) publish(exec *models.Execution) {
	if s.notify != nil {
		s.notify.NotifyExecution(exec)
	}
}
