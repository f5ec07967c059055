// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	execKeyPrefix   = "exec:"
	userKeyPrefix   = "exec_user:"
	activeKeyPrefix = "exec_active:"
)

// maxConflictRetries bounds retries of a transaction that lost a write race.
const maxConflictRetries = 5

// BadgerOptions configures OpenBadger.
type BadgerOptions struct {
	Path       string
	SyncWrites bool
	InMemory   bool
}

// OpenBadger opens the BadgerDB database backing the execution store.
func OpenBadger(opts BadgerOptions) (*badger.DB, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Suppress BadgerDB internal logs
	bopts.SyncWrites = opts.SyncWrites
	bopts.ValueLogFileSize = 64 << 20

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for executions: %w", err)
	}
	return db, nil
}

// BadgerStore implements durable execution storage on BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	notify Notifier
	now    func() time.Time
}

// NewBadgerStore creates a store on an open database. notify may be nil.
func NewBadgerStore(db *badger.DB, notify Notifier) *BadgerStore {
	return &BadgerStore{db: db, notify: notify, now: time.Now}
}

func execKey(id string) []byte {
	return []byte(execKeyPrefix + id)
}

func userKey(user, id string) []byte {
	return []byte(userKeyPrefix + url.QueryEscape(user) + ":" + id)
}

func activeKey(user, id string) []byte {
	return []byte(activeKeyPrefix + url.QueryEscape(user) + ":" + id)
}

func userPrefix(prefix, user string) []byte {
	if user == "" {
		return []byte(prefix)
	}
	return []byte(prefix + url.QueryEscape(user) + ":")
}

// CreateExecution stores a new execution.
func (s *BadgerStore) CreateExecution(ctx context.Context, exec *models.Execution) error {
	now := s.now().UTC()
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = now
	}
	exec.UpdatedAt = now
	if exec.Status == "" {
		exec.Status = models.StatusCreated
	}

	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshal execution: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := execKey(exec.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("execution %s already exists", exec.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get execution: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set execution: %w", err)
		}

		// Store user-to-execution mapping for efficient listing
		if err := txn.Set(userKey(exec.User, exec.ID), []byte(exec.ID)); err != nil {
			return fmt.Errorf("set user mapping: %w", err)
		}
		if exec.Status.IsActive() {
			if err := txn.Set(activeKey(exec.User, exec.ID), nil); err != nil {
				return fmt.Errorf("set active mapping: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(exec)
	return nil
}

// Get retrieves an execution by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*models.Execution, error) {
	var exec *models.Execution
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		exec, err = getExecution(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return exec, nil
}

func getExecution(txn *badger.Txn, id string) (*models.Execution, error) {
	item, err := txn.Get(execKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.Errorf(models.ErrExecutionNotFound, "execution %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}

	var exec models.Execution
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &exec)
	}); err != nil {
		return nil, fmt.Errorf("decode execution %s: %w", id, err)
	}
	return &exec, nil
}

// update applies m to the stored execution inside one transaction,
// retrying when a concurrent writer committed first.
func (s *BadgerStore) update(ctx context.Context, id string, m mutation) (*models.Execution, error) {
	var result *models.Execution

	for attempt := 0; ; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			exec, err := getExecution(txn, id)
			if err != nil {
				return err
			}
			wasActive := exec.Status.IsActive()

			now := s.now().UTC()
			if err := m(exec, now); err != nil {
				return err
			}
			exec.UpdatedAt = now

			data, err := json.Marshal(exec)
			if err != nil {
				return fmt.Errorf("marshal execution: %w", err)
			}
			if err := txn.Set(execKey(id), data); err != nil {
				return fmt.Errorf("set execution: %w", err)
			}
			if wasActive && !exec.Status.IsActive() {
				if err := txn.Delete(activeKey(exec.User, id)); err != nil {
					return fmt.Errorf("delete active mapping: %w", err)
				}
			}
			result = exec
			return nil
		})

		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.Debug().Str("execution_id", id).Int("attempt", attempt+1).Msg("Retrying conflicting execution update")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.publish(result)
	return result, nil
}

// StartStep marks the execution running at step.
func (s *BadgerStore) StartStep(ctx context.Context, id, step string) (*models.Execution, error) {
	return s.update(ctx, id, startStep(step))
}

// AdvanceStep records step as completed and merges its outputs.
func (s *BadgerStore) AdvanceStep(ctx context.Context, id, step string, outputs map[string]string) (*models.Execution, error) {
	return s.update(ctx, id, advanceStep(step, outputs))
}

// FailExecution marks the execution failed at step.
func (s *BadgerStore) FailExecution(ctx context.Context, id, step string, detail *models.ErrorDetail) (*models.Execution, error) {
	return s.update(ctx, id, failExecution(step, detail))
}

// CompleteExecution marks the execution succeeded.
func (s *BadgerStore) CompleteExecution(ctx context.Context, id string, outputs map[string]string) (*models.Execution, error) {
	return s.update(ctx, id, completeExecution(outputs))
}

// CancelExecution marks the execution cancelled.
func (s *BadgerStore) CancelExecution(ctx context.Context, id string) (*models.Execution, error) {
	return s.update(ctx, id, cancelExecution())
}

// List returns the executions of user, newest first. An empty user lists
// every execution.
func (s *BadgerStore) List(ctx context.Context, user string) ([]*models.Execution, error) {
	var execs []*models.Execution

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userPrefix(userKeyPrefix, user)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id string
			if err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			exec, err := getExecution(txn, id)
			if errors.Is(err, models.ErrExecutionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			execs = append(execs, exec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	sortNewestFirst(execs)
	return execs, nil
}

// ListActive returns every created or running execution, oldest first.
func (s *BadgerStore) ListActive(ctx context.Context) ([]*models.Execution, error) {
	var execs []*models.Execution

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(activeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			id := key[strings.LastIndex(key, ":")+1:]

			exec, err := getExecution(txn, id)
			if errors.Is(err, models.ErrExecutionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			execs = append(execs, exec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list active executions: %w", err)
	}

	sortOldestFirst(execs)
	return execs, nil
}

// CountActive counts the created or running executions of user, or of
// every user when user is empty.
func (s *BadgerStore) CountActive(ctx context.Context, user string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userPrefix(activeKeyPrefix, user)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count active executions: %w", err)
	}
	return count, nil
}

func (s *BadgerStore) publish(exec *models.Execution) {
	if s.notify != nil {
		s.notify.NotifyExecution(exec.Clone())
	}
}
