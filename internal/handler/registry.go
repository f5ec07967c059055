// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/geoimport/internal/models"
)

// ErrDuplicateHandler is returned when a handler ID is registered twice.
var ErrDuplicateHandler = errors.New("handler already registered")

// Registry is the ordered set of handlers known to the process.
// Lookups return the first match in registration order.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
	byID     map[string]Handler
}

// NewRegistry creates a registry holding handlers in the given order.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{byID: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends h. Registering an ID twice fails.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[h.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.ID())
	}
	r.handlers = append(r.handlers, h)
	r.byID[h.ID()] = h
	return nil
}

// FindHandler returns the first registered handler that can handle in.
func (r *Registry) FindHandler(in Input) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.handlers {
		if h.CanHandle(in) {
			return h, nil
		}
	}
	if in.HandlerID != "" {
		return nil, models.Errorf(models.ErrNoHandler, "no handler registered as %q", in.HandlerID)
	}
	return nil, models.Errorf(models.ErrNoHandler, "no handler can process %q", in.Files.Base())
}

// Get returns the handler registered under id.
func (r *Registry) Get(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byID[id]
	return h, ok
}

// Ambiguous returns the IDs of every handler that can handle in, in
// registration order. More than one entry means FindHandler resolved an
// overlap by order alone.
func (r *Registry) Ambiguous(in Input) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, h := range r.handlers {
		if h.CanHandle(in) {
			ids = append(ids, h.ID())
		}
	}
	return ids
}

// Handlers returns the registered handlers in order.
func (r *Registry) Handlers() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Descriptors returns the capability descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h.Descriptor())
	}
	return out
}
