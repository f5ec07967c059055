// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// ErrQueueFull is returned by Pool.Dispatch when MaxQueue tasks are waiting.
var ErrQueueFull = errors.New("dispatch queue is full")

// PoolConfig configures the in-process worker pool.
type PoolConfig struct {
	Workers    int
	MaxQueue   int
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultPoolConfig returns the single-node defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Workers:    4,
		MaxQueue:   1024,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Pool runs tasks on a fixed number of goroutines. Dispatch never blocks;
// a task already waiting in the queue is not queued twice.
type Pool struct {
	cfg     PoolConfig
	handler Handler

	mu      sync.Mutex
	queue   []models.Task
	pending map[string]struct{}
	notify  chan struct{}
}

// NewPool creates a Pool, filling unset fields from DefaultPoolConfig.
func NewPool(h Handler, cfg PoolConfig) *Pool {
	def := DefaultPoolConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = def.MaxQueue
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	return &Pool{
		cfg:     cfg,
		handler: h,
		pending: make(map[string]struct{}),
		notify:  make(chan struct{}, 1),
	}
}

// Dispatch queues task.
func (p *Pool) Dispatch(ctx context.Context, task models.Task) error {
	err := p.enqueue(task)
	metrics.RecordDispatch("pool", err)
	return err
}

func (p *Pool) enqueue(task models.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.pending[task.Key()]; ok {
		return nil
	}
	if len(p.queue) >= p.cfg.MaxQueue {
		return ErrQueueFull
	}
	p.queue = append(p.queue, task)
	p.pending[task.Key()] = struct{}{}
	metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
	p.signal()
	return nil
}

// signal wakes one idle worker. Callers hold p.mu.
func (p *Pool) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Pool) next() (models.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return models.Task{}, false
	}
	task := p.queue[0]
	p.queue = p.queue[1:]
	delete(p.pending, task.Key())
	metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
	if len(p.queue) > 0 {
		p.signal()
	}
	return task, true
}

// Len returns the number of queued tasks.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Serve runs the workers until ctx is cancelled. Tasks still queued at
// that point are dropped; their executions stay active until the pipeline
// resumes them on the next start.
func (p *Pool) Serve(ctx context.Context) error {
	logging.Info().Int("workers", p.cfg.Workers).Msg("Dispatch pool started")

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.work(ctx)
		}()
	}
	wg.Wait()

	if n := p.Len(); n > 0 {
		logging.Warn().Int("queued", n).Msg("Dispatch pool stopped with queued tasks")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (p *Pool) String() string {
	return "dispatch-pool"
}

func (p *Pool) work(ctx context.Context) {
	for {
		task, ok := p.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-p.notify:
				continue
			}
		}
		p.run(ctx, task)
		if ctx.Err() != nil {
			return
		}
	}
}

// run handles task, retrying with a linear backoff while the handler asks
// for redelivery. A DropHandler hears about a task that runs out of
// retries.
func (p *Pool) run(ctx context.Context, task models.Task) {
	for {
		err := p.handler.HandleTask(ctx, task)
		metrics.RecordHandled("pool", err)
		if err == nil || ctx.Err() != nil {
			return
		}

		log := logging.Ctx(ctx).With().
			Str("execution_id", task.ExecutionID).
			Str("step", task.Step).
			Int("attempt", task.Attempt).
			Logger()
		if task.Attempt >= p.cfg.MaxRetries {
			log.Error().Err(err).Msg("Task failed after retries, dropped")
			reportDropped(ctx, p.handler, task, err)
			return
		}
		log.Warn().Err(err).Msg("Task failed, retrying")

		task.Attempt++
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(task.Attempt) * p.cfg.RetryDelay):
		}
	}
}
