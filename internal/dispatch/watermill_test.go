// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geoimport/internal/models"
)

func newGoChannel(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, NewLogger())
	t.Cleanup(func() { _ = pubsub.Close() })
	return pubsub
}

func TestEncodeDecodeTask(t *testing.T) {
	t.Parallel()

	task := models.Task{ExecutionID: "e1", Step: models.StepImportResource, Index: 1, Attempt: 2}
	msg, err := EncodeTask(task)
	if err != nil {
		t.Fatalf("EncodeTask: %v", err)
	}
	if msg.UUID != "e1:import_resource" {
		t.Errorf("UUID = %q, want task key", msg.UUID)
	}
	if msg.Metadata.Get(MetadataStep) != models.StepImportResource || msg.Metadata.Get(MetadataAttempt) != "2" {
		t.Errorf("metadata = %v", msg.Metadata)
	}

	got, err := DecodeTask(msg)
	if err != nil {
		t.Fatalf("DecodeTask: %v", err)
	}
	if got != task {
		t.Errorf("DecodeTask = %+v, want %+v", got, task)
	}

	if _, err := EncodeTask(models.Task{Step: "x"}); err == nil {
		t.Error("EncodeTask without execution id should fail")
	}
	if _, err := DecodeTask(message.NewMessage("bad", []byte("{"))); err == nil {
		t.Error("DecodeTask of invalid JSON should fail")
	}
	if _, err := DecodeTask(message.NewMessage("empty", []byte(`{"execution_id":"e1"}`))); err == nil {
		t.Error("DecodeTask without step should fail")
	}
}

func TestPublisherConsumerRoundTrip(t *testing.T) {
	t.Parallel()

	pubsub := newGoChannel(t)
	rec := newRecorder(2, 0)

	cfg := DefaultConsumerConfig()
	cfg.PoisonTopic = ""
	consumer := NewConsumer(cfg, pubsub, nil, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Serve(ctx) }()

	select {
	case <-consumer.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}

	pub := NewPublisher(pubsub, "", NewBreaker(DefaultBreakerConfig("test-roundtrip")))
	for _, step := range []string{models.StepStartImport, models.StepImportResource} {
		if err := pub.Dispatch(ctx, models.Task{ExecutionID: "e1", Step: step}); err != nil {
			t.Fatalf("Dispatch(%s): %v", step, err)
		}
	}
	rec.wait(t)

	// The router runs handlers concurrently, so only the set is fixed.
	steps := map[string]int{}
	for _, task := range rec.handled() {
		steps[task.Step]++
	}
	if len(steps) != 2 || steps[models.StepStartImport] != 1 || steps[models.StepImportResource] != 1 {
		t.Errorf("handled steps = %v", steps)
	}
}

func TestConsumerRetriesThenPoisons(t *testing.T) {
	t.Parallel()

	pubsub := newGoChannel(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poisoned, err := pubsub.Subscribe(ctx, "tasks.poison")
	if err != nil {
		t.Fatal(err)
	}

	attempts := make(chan struct{}, 16)
	h := HandlerFunc(func(context.Context, models.Task) error {
		attempts <- struct{}{}
		return errors.New("datastore unavailable")
	})

	cfg := ConsumerConfig{
		Topic:                "tasks",
		RetryMaxRetries:      2,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		RetryMultiplier:      1,
		PoisonTopic:          "tasks.poison",
	}
	consumer := NewConsumer(cfg, pubsub, pubsub, h, nil)
	go func() { _ = consumer.Serve(ctx) }()
	<-consumer.Running()

	if err := NewPublisher(pubsub, "tasks", nil).Dispatch(ctx, models.Task{ExecutionID: "e9", Step: models.StepStartImport}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-poisoned:
		msg.Ack()
		if msg.Metadata.Get(middleware.ReasonForPoisonedKey) == "" {
			t.Error("poisoned message lacks a reason")
		}
		task, err := DecodeTask(msg)
		if err != nil || task.ExecutionID != "e9" {
			t.Errorf("poisoned task = %+v, %v", task, err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("task was not moved to the poison topic")
	}

	if n := len(attempts); n != 3 {
		t.Errorf("handler attempts = %d, want 3", n)
	}
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	t.Parallel()

	pubsub := newGoChannel(t)
	rec := newRecorder(1, 0)
	consumer := NewConsumer(ConsumerConfig{Topic: "tasks"}, pubsub, nil, rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Serve(ctx) }()
	<-consumer.Running()

	if err := pubsub.Publish("tasks", message.NewMessage("junk", []byte("not json"))); err != nil {
		t.Fatal(err)
	}
	if err := NewPublisher(pubsub, "tasks", nil).Dispatch(ctx, models.Task{ExecutionID: "e2", Step: models.StepStartCopy}); err != nil {
		t.Fatal(err)
	}
	rec.wait(t)

	if got := rec.handled(); len(got) != 1 || got[0].ExecutionID != "e2" {
		t.Errorf("handled = %+v", got)
	}
}

func TestConsumerSkipsHandledTasks(t *testing.T) {
	t.Parallel()

	// The first attempt fails, so only the retry is remembered.
	rec := newRecorder(2, 1)
	consumer := NewConsumer(ConsumerConfig{Topic: "tasks"}, newGoChannel(t), nil, rec, nil)

	deliveries := []struct {
		task    models.Task
		wantErr bool
	}{
		{models.Task{ExecutionID: "e3", Step: models.StepStartImport}, true},
		{models.Task{ExecutionID: "e3", Step: models.StepStartImport}, false},
		{models.Task{ExecutionID: "e3", Step: models.StepStartImport}, false},
		{models.Task{ExecutionID: "e3", Step: models.StepImportResource}, false},
		{models.Task{ExecutionID: "e3", Step: models.StepImportResource}, false},
	}
	for i, d := range deliveries {
		msg, err := EncodeTask(d.task)
		if err != nil {
			t.Fatal(err)
		}
		if err := consumer.handle(msg); (err != nil) != d.wantErr {
			t.Errorf("delivery %d: handle = %v, want error %v", i, err, d.wantErr)
		}
	}

	steps := map[string]int{}
	for _, task := range rec.handled() {
		steps[task.Step]++
	}
	if steps[models.StepStartImport] != 1 || steps[models.StepImportResource] != 1 {
		t.Errorf("handled steps = %v, want each once", steps)
	}
}

// dropRecorder fails every task and records the ones reported dropped.
type dropRecorder struct {
	dropped chan models.Task
}

func (d *dropRecorder) HandleTask(context.Context, models.Task) error {
	return errors.New("datastore unavailable")
}

func (d *dropRecorder) TaskDropped(_ context.Context, task models.Task, _ error) {
	d.dropped <- task
}

func TestConsumerReportsExhaustedTask(t *testing.T) {
	t.Parallel()

	pubsub := newGoChannel(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &dropRecorder{dropped: make(chan models.Task, 4)}
	cfg := ConsumerConfig{
		Topic:                "tasks",
		RetryMaxRetries:      1,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     time.Millisecond,
		RetryMultiplier:      1,
		PoisonTopic:          "tasks.poison",
	}
	consumer := NewConsumer(cfg, pubsub, pubsub, h, nil)
	go func() { _ = consumer.Serve(ctx) }()
	<-consumer.Running()

	if err := NewPublisher(pubsub, "tasks", nil).Dispatch(ctx, models.Task{ExecutionID: "e7", Step: models.StepPublishResource, Index: 2}); err != nil {
		t.Fatal(err)
	}

	select {
	case task := <-h.dropped:
		if task.ExecutionID != "e7" || task.Step != models.StepPublishResource {
			t.Errorf("dropped task = %+v", task)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("exhausted task was not reported")
	}
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisherBreakerOpens(t *testing.T) {
	t.Parallel()

	cfg := DefaultBreakerConfig("test-open")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Minute
	breaker := NewBreaker(cfg)

	fp := &failingPublisher{}
	pub := NewPublisher(fp, "tasks", breaker)
	task := models.Task{ExecutionID: "e1", Step: models.StepStartImport}

	for i := 0; i < 2; i++ {
		if err := pub.Dispatch(context.Background(), task); err == nil {
			t.Fatal("Dispatch should fail")
		}
	}
	err := pub.Dispatch(context.Background(), task)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Dispatch with open breaker = %v, want ErrOpenState", err)
	}
	if fp.calls != 2 {
		t.Errorf("publisher calls = %d, want 2", fp.calls)
	}
	if breaker.State() != gobreaker.StateOpen {
		t.Errorf("state = %s", breaker.State())
	}
}

func TestPublisherClosed(t *testing.T) {
	t.Parallel()

	pub := NewPublisher(newGoChannel(t), "tasks", nil)
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Dispatch(context.Background(), models.Task{ExecutionID: "e1", Step: "s"}); err == nil {
		t.Error("Dispatch after Close should fail")
	}
}
