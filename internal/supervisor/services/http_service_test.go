// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/geoimport/internal/logging"
)

//nolint:gochecknoinits // test logger setup
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

var _ suture.Service = (*HTTPService)(nil)

func waitForAddr(t *testing.T, svc *HTTPService) net.Addr {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := svc.Addr(); addr != nil {
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server never bound")
	return nil
}

func TestHTTPServiceServesUntilCanceled(t *testing.T) {
	t.Parallel()

	server := &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	addr := waitForAddr(t, svc)
	resp, err := http.Get("http://" + addr.String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestHTTPServiceReportsBusyPort(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()

	svc := NewHTTPService(&http.Server{Addr: taken.Addr().String(), ReadHeaderTimeout: time.Second}, time.Second)
	if err := svc.Serve(context.Background()); err == nil {
		t.Fatal("Serve on a busy port succeeded")
	}
	if svc.Addr() != nil {
		t.Error("Addr set after failed bind")
	}
}

// stubServer fails Serve or Shutdown on demand.
type stubServer struct {
	serveErr    error
	shutdownErr error
	stop        chan struct{}
}

func (s *stubServer) Serve(ln net.Listener) error {
	defer ln.Close()
	if s.serveErr != nil {
		return s.serveErr
	}
	<-s.stop
	return http.ErrServerClosed
}

func (s *stubServer) Shutdown(context.Context) error {
	close(s.stop)
	return s.shutdownErr
}

func TestHTTPServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		server  *stubServer
		cancel  bool
		wantErr bool
	}{
		{name: "serve failure", server: &stubServer{serveErr: errors.New("boom"), stop: make(chan struct{})}, wantErr: true},
		{name: "closed externally", server: &stubServer{serveErr: http.ErrServerClosed, stop: make(chan struct{})}},
		{name: "shutdown failure", server: &stubServer{shutdownErr: errors.New("stuck"), stop: make(chan struct{})}, cancel: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newHTTPService(tt.server, "127.0.0.1:0", 0)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			err := svc.Serve(ctx)
			if tt.wantErr && err == nil {
				t.Fatal("Serve succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Serve = %v, want nil", err)
			}
		})
	}
}

func TestHTTPServiceDefaults(t *testing.T) {
	t.Parallel()

	svc := NewHTTPService(&http.Server{Addr: ":0", ReadHeaderTimeout: time.Second}, 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("shutdownTimeout = %v, want 10s", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("String = %q", svc.String())
	}
}
