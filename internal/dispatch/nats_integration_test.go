// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

//go:build integration

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/geoimport/internal/models"
)

func TestEmbeddedNATSRoundTrip(t *testing.T) {
	cfg := DefaultNATSConfig()
	cfg.Port = server.RANDOM_PORT
	cfg.StoreDir = t.TempDir()
	cfg.Subscribers = 1

	ns, err := StartEmbeddedServer(cfg)
	if err != nil {
		t.Fatalf("StartEmbeddedServer: %v", err)
	}
	t.Cleanup(ns.Shutdown)
	cfg.URL = ns.ClientURL()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := EnsureStream(ctx, cfg); err != nil {
		t.Fatalf("EnsureStream: %v", err)
	}
	// Idempotent.
	if err := EnsureStream(ctx, cfg); err != nil {
		t.Fatalf("EnsureStream again: %v", err)
	}

	logger := NewLogger()
	pub, err := NewNATSPublisher(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()
	sub, err := NewNATSSubscriber(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	rec := newRecorder(1, 0)
	consumer := NewConsumer(ConsumerConfig{Topic: DefaultTopic}, sub, nil, rec, logger)
	go func() { _ = consumer.Serve(ctx) }()
	<-consumer.Running()

	dispatcher := NewPublisher(pub, DefaultTopic, nil)
	task := models.Task{ExecutionID: "e1", Step: models.StepStartImport}
	for i := 0; i < 2; i++ {
		// The second publish carries the same Nats-Msg-Id and is dropped.
		if err := dispatcher.Dispatch(ctx, task); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	rec.wait(t)

	time.Sleep(500 * time.Millisecond)
	if got := rec.handled(); len(got) != 1 {
		t.Errorf("handled %d tasks, want 1 after deduplication", len(got))
	}
}
