// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/geoimport/internal/config"
	"github.com/tomtom215/geoimport/internal/dispatch"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/pipeline"
	"github.com/tomtom215/geoimport/internal/supervisor"
)

// taskRunner is the pipeline side of dispatch.
type taskRunner interface {
	dispatch.Handler
	SetDispatcher(d pipeline.Dispatcher)
}

// brokerPing reports whether the task broker is reachable. It is nil for
// the in-process pool.
type brokerPing func(ctx context.Context) error

// initDispatch wires the configured dispatcher into the pipeline and adds
// its services to the tree. The returned func releases broker connections
// after the tree has stopped.
func initDispatch(ctx context.Context, cfg *config.Config, tree *supervisor.SupervisorTree, runner taskRunner) (brokerPing, func(), error) {
	switch cfg.Dispatch.Mode {
	case config.DispatchNATS:
		return initNATSDispatch(ctx, cfg, tree, runner)
	default:
		pool := dispatch.NewPool(runner, cfg.PoolConfig())
		runner.SetDispatcher(pool)
		tree.AddWorkerService(pool)
		logging.Info().
			Int("workers", cfg.Dispatch.Workers).
			Int("max_queue", cfg.Dispatch.MaxQueue).
			Msg("In-process task pool configured")
		return nil, func() {}, nil
	}
}

func initNATSDispatch(ctx context.Context, cfg *config.Config, tree *supervisor.SupervisorTree, runner taskRunner) (_ brokerPing, _ func(), err error) {
	nc := cfg.NATSOptions()

	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	if nc.Embedded {
		srv, err := dispatch.StartEmbeddedServer(nc)
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		// Serve shuts the server down with the tree; this covers a failed startup.
		closers = append(closers, srv.Shutdown)
		nc.URL = srv.ClientURL()
		tree.AddBrokerService(srv)
	}

	if err := dispatch.EnsureStream(ctx, nc); err != nil {
		return nil, nil, fmt.Errorf("ensure task stream: %w", err)
	}

	logger := dispatch.NewLogger()
	pub, err := dispatch.NewNATSPublisher(nc, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create task publisher: %w", err)
	}
	publisher := dispatch.NewPublisher(pub, cfg.Dispatch.Topic, dispatch.NewBreaker(cfg.BreakerConfig()))
	closers = append(closers, func() {
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing task publisher")
		}
	})

	sub, err := dispatch.NewNATSSubscriber(nc, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create task subscriber: %w", err)
	}
	closers = append(closers, func() {
		if err := sub.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing task subscriber")
		}
	})

	conn, err := nats.Connect(nc.URL, nats.Name("geoimport-health"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}
	closers = append(closers, conn.Close)

	// The poison queue reuses the task publisher's connection.
	consumer := dispatch.NewConsumer(cfg.ConsumerConfig(), sub, pub, runner, logger)
	runner.SetDispatcher(publisher)
	tree.AddWorkerService(consumer)

	logging.Info().
		Str("url", nc.URL).
		Str("stream", nc.Stream).
		Str("topic", cfg.Dispatch.Topic).
		Bool("embedded", nc.Embedded).
		Msg("JetStream task dispatch configured")

	ping := func(ctx context.Context) error {
		if !conn.IsConnected() {
			return errors.New("not connected to NATS")
		}
		return conn.FlushWithContext(ctx)
	}
	return ping, release, nil
}
