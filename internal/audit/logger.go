// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
)

// Config holds audit trail settings.
type Config struct {
	// BufferSize is the capacity of the write queue. Events beyond it are
	// dropped with a warning.
	BufferSize int

	// Retention is how long events are kept. Zero keeps them forever.
	Retention time.Duration

	// CleanupInterval is how often expired events are deleted.
	CleanupInterval time.Duration
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:      1000,
		Retention:       90 * 24 * time.Hour,
		CleanupInterval: 24 * time.Hour,
	}
}

// Logger records audit events asynchronously. Record never blocks the
// request path; Serve drains the queue into the store.
type Logger struct {
	cfg    Config
	store  Store
	events chan *Event
	now    func() time.Time
}

// NewLogger creates a Logger writing to store.
func NewLogger(store Store, cfg Config) *Logger {
	d := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = d.BufferSize
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = d.CleanupInterval
	}
	return &Logger{
		cfg:    cfg,
		store:  store,
		events: make(chan *Event, cfg.BufferSize),
		now:    time.Now,
	}
}

// Record queues event, filling in its ID, timestamp and the request and
// correlation IDs carried by ctx.
func (l *Logger) Record(ctx context.Context, event *Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = logging.RequestIDFromContext(ctx)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = logging.CorrelationIDFromContext(ctx)
	}

	select {
	case l.events <- event:
	default:
		logging.Ctx(ctx).Warn().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Audit buffer full, dropping event")
	}
}

// Submitted records an admitted submission.
func (l *Logger) Submitted(ctx context.Context, actor Actor, sourceIP string, exec *models.Execution) {
	l.Record(ctx, &Event{
		Type:        EventTypeSubmitted,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Action:      string(exec.Action),
		ExecutionID: exec.ID,
		HandlerID:   exec.HandlerID,
		Description: "submission accepted",
		SourceIP:    sourceIP,
	})
}

// Rejected records a submission refused before an execution was created.
func (l *Logger) Rejected(ctx context.Context, actor Actor, sourceIP, action string, err error) {
	event := &Event{
		Type:        EventTypeRejected,
		Outcome:     OutcomeFailure,
		Actor:       actor,
		Action:      action,
		Description: err.Error(),
		SourceIP:    sourceIP,
	}
	var me *models.Error
	if errors.As(err, &me) {
		event.Category = string(me.Category)
		if me.Category == models.CategoryForbidden {
			event.Type = EventTypeDenied
		}
	}
	l.Record(ctx, event)
}

// Cancelled records a cancellation request and its result.
func (l *Logger) Cancelled(ctx context.Context, actor Actor, sourceIP, execID string, err error) {
	event := &Event{
		Type:        EventTypeCancelled,
		Outcome:     OutcomeSuccess,
		Actor:       actor,
		Action:      "cancel",
		ExecutionID: execID,
		Description: "execution cancelled",
		SourceIP:    sourceIP,
	}
	if err != nil {
		event.Outcome = OutcomeFailure
		event.Description = err.Error()
		var me *models.Error
		if errors.As(err, &me) {
			event.Category = string(me.Category)
		}
	}
	l.Record(ctx, event)
}

// Query returns events matching filter, newest first.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Serve implements suture.Service. It writes queued events to the store
// and deletes expired ones; queued events are flushed on shutdown.
func (l *Logger) Serve(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		case event := <-l.events:
			l.write(event)
		case <-ticker.C:
			l.cleanup(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (l *Logger) String() string {
	return "audit-logger"
}

func (l *Logger) drain() {
	for {
		select {
		case event := <-l.events:
			l.write(event)
		default:
			return
		}
	}
}

func (l *Logger) write(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, event); err != nil {
		logging.Error().Err(err).Str("event_id", event.ID).Msg("Failed to save audit event")
	}
}

func (l *Logger) cleanup(ctx context.Context) {
	if l.cfg.Retention <= 0 {
		return
	}
	n, err := l.store.Delete(ctx, l.now().Add(-l.cfg.Retention))
	if err != nil {
		logging.Error().Err(err).Msg("Audit cleanup failed")
		return
	}
	if n > 0 {
		logging.Info().Int64("count", n).Msg("Deleted expired audit events")
	}
}
