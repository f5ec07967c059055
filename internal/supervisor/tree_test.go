// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/geoimport/internal/logging"
)

//nolint:gochecknoinits // test logger setup
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

// countingService runs until canceled, failing the first fails runs.
type countingService struct {
	name   string
	fails  int32
	starts atomic.Int32
	stops  atomic.Int32
}

func (s *countingService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	defer s.stops.Add(1)
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *countingService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestNewSupervisorTreeAppliesDefaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(nil, TreeConfig{FailureBackoff: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor is nil")
	}
	if tree.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %v, want 5", tree.config.FailureThreshold)
	}
	if tree.config.FailureDecay != 30 {
		t.Errorf("FailureDecay = %v, want 30", tree.config.FailureDecay)
	}
	if tree.config.FailureBackoff != time.Second {
		t.Errorf("FailureBackoff = %v, want explicit 1s", tree.config.FailureBackoff)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", tree.config.ShutdownTimeout)
	}
	if len(tree.layers) != 3 {
		t.Errorf("layers = %d, want 3", len(tree.layers))
	}
}

func TestTreeRunsServicesInEveryLayer(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	broker := &countingService{name: "broker"}
	workers := &countingService{name: "workers"}
	api := &countingService{name: "api"}
	tree.AddBrokerService(broker)
	tree.AddWorkerService(workers)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return broker.starts.Load() == 1 && workers.starts.Load() == 1 && api.starts.Load() == 1
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	for _, svc := range []*countingService{broker, workers, api} {
		if svc.stops.Load() != 1 {
			t.Errorf("%s stopped %d times, want 1", svc.name, svc.stops.Load())
		}
	}
	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services = %v, want none", report)
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}

	flaky := &countingService{name: "flaky", fails: 2}
	steady := &countingService{name: "steady"}
	if _, err := tree.Add(LayerWorkers, flaky); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := tree.Add(LayerAPI, steady); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return flaky.starts.Load() >= 3 })
	if got := steady.starts.Load(); got != 1 {
		t.Errorf("steady service started %d times, want 1", got)
	}

	cancel()
	<-errCh
}

func TestAddUnknownLayer(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), DefaultTreeConfig())
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	if _, err := tree.Add(Layer("storage-layer"), &countingService{name: "x"}); err == nil {
		t.Error("Add to unknown layer succeeded")
	}
}

func TestServiceName(t *testing.T) {
	t.Parallel()

	if got := serviceName(&countingService{name: "hub"}); got != "hub" {
		t.Errorf("serviceName = %q, want hub", got)
	}
	if got := serviceName(bareService{}); got != "supervisor.bareService" {
		t.Errorf("serviceName = %q, want supervisor.bareService", got)
	}
}

// bareService implements Serve without String.
type bareService struct{}

func (bareService) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}
