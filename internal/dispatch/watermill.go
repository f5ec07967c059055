// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geoimport/internal/cache"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/metrics"
	"github.com/tomtom215/geoimport/internal/models"
)

// NewLogger returns the Watermill logger adapter backed by the global
// zerolog logger.
func NewLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewComponentSlogLogger("watermill"))
}

// Publisher dispatches tasks as Watermill messages.
type Publisher struct {
	publisher message.Publisher
	topic     string
	breaker   *gobreaker.CircuitBreaker[any]

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps pub. breaker may be nil.
func NewPublisher(pub message.Publisher, topic string, breaker *gobreaker.CircuitBreaker[any]) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{publisher: pub, topic: topic, breaker: breaker}
}

// Dispatch publishes task through the circuit breaker.
func (p *Publisher) Dispatch(ctx context.Context, task models.Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("publisher is closed")
	}

	msg, err := EncodeTask(task)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	if p.breaker != nil {
		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
	} else {
		err = p.publisher.Publish(p.topic, msg)
	}
	metrics.RecordDispatch("watermill", err)
	if err != nil {
		return fmt.Errorf("publish task %s: %w", task.Key(), err)
	}
	return nil
}

// Close closes the underlying publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// ConsumerConfig configures the Watermill router that consumes tasks.
type ConsumerConfig struct {
	Topic        string
	HandlerName  string
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// PoisonTopic receives tasks that still fail after the retries.
	// Empty disables the poison queue.
	PoisonTopic string

	// DedupCapacity and DedupTTL bound the memory of handled task keys.
	// A message for a step that already succeeded within DedupTTL is
	// acknowledged without running the step again.
	DedupCapacity int
	DedupTTL      time.Duration
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:                DefaultTopic,
		HandlerName:          "pipeline-tasks",
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      5,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     time.Minute,
		RetryMultiplier:      2.0,
		PoisonTopic:          DefaultTopic + ".poison",
		DedupCapacity:        10000,
		DedupTTL:             time.Hour,
	}
}

// Consumer receives task messages and runs them through a Handler.
type Consumer struct {
	cfg        ConsumerConfig
	subscriber message.Subscriber
	poison     message.Publisher
	handler    Handler
	logger     watermill.LoggerAdapter
	handled    *cache.LRU[time.Time]

	mu      sync.Mutex
	running chan struct{}
}

// NewConsumer creates a Consumer. poison may be nil.
func NewConsumer(cfg ConsumerConfig, sub message.Subscriber, poison message.Publisher, h Handler, logger watermill.LoggerAdapter) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.Topic == "" {
		cfg.Topic = def.Topic
	}
	if cfg.HandlerName == "" {
		cfg.HandlerName = def.HandlerName
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = def.CloseTimeout
	}
	if cfg.DedupCapacity <= 0 {
		cfg.DedupCapacity = def.DedupCapacity
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = def.DedupTTL
	}
	if logger == nil {
		logger = NewLogger()
	}
	return &Consumer{
		cfg:        cfg,
		subscriber: sub,
		poison:     poison,
		handler:    h,
		logger:     logger,
		handled:    cache.NewLRU[time.Time](cfg.DedupCapacity, cfg.DedupTTL),
		running:    make(chan struct{}),
	}
}

// newRouter builds a router with the middleware stack. A router runs once,
// so every Serve builds a fresh one.
func (c *Consumer) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: c.cfg.CloseTimeout}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      c.cfg.RetryMaxRetries,
		InitialInterval: c.cfg.RetryInitialInterval,
		MaxInterval:     c.cfg.RetryMaxInterval,
		Multiplier:      c.cfg.RetryMultiplier,
		Logger:          c.logger,
	}
	if c.poison != nil && c.cfg.PoisonTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(c.poison, c.cfg.PoisonTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		// Poison queue wraps retry so only exhausted tasks are moved.
		router.AddMiddleware(poisonQueue)
	}
	router.AddMiddleware(c.exhausted)
	router.AddMiddleware(retry.Middleware)

	router.AddConsumerHandler(c.cfg.HandlerName, c.cfg.Topic, c.subscriber, c.handle)
	return router, nil
}

// exhausted sits outside the retry middleware, so it only sees errors
// that outlived every retry, and reports those tasks dropped.
func (c *Consumer) exhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err == nil || msg.Context().Err() != nil {
			return msgs, err
		}
		if task, derr := DecodeTask(msg); derr == nil {
			reportDropped(msg.Context(), c.handler, task, err)
		}
		return msgs, err
	}
}

func (c *Consumer) handle(msg *message.Message) error {
	if c.handled.Contains(msg.UUID) {
		logging.Debug().Str("uuid", msg.UUID).Msg("Skipping redelivered task message")
		return nil
	}

	task, err := DecodeTask(msg)
	if err != nil {
		// Redelivering a malformed message cannot help.
		c.logger.Error("Dropping malformed task message", err, watermill.LogFields{"uuid": msg.UUID})
		return nil
	}

	ctx := logging.ContextWithCorrelationID(msg.Context(), msg.UUID)
	err = c.handler.HandleTask(ctx, task)
	metrics.RecordHandled("watermill", err)
	if err == nil {
		c.handled.Add(msg.UUID, time.Now())
	}
	return err
}

// Serve runs the router until ctx is cancelled.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := c.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			c.mu.Lock()
			select {
			case <-c.running:
			default:
				close(c.running)
			}
			c.mu.Unlock()
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("topic", c.cfg.Topic).Msg("Task consumer started")
	if err := router.Run(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// Running is closed once the first router is consuming.
func (c *Consumer) Running() <-chan struct{} {
	return c.running
}

// String implements fmt.Stringer for supervisor logging.
func (c *Consumer) String() string {
	return "task-consumer"
}
