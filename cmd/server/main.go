// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/geoimport/internal/api"
	"github.com/tomtom215/geoimport/internal/audit"
	"github.com/tomtom215/geoimport/internal/auth"
	"github.com/tomtom215/geoimport/internal/authz"
	"github.com/tomtom215/geoimport/internal/catalog"
	"github.com/tomtom215/geoimport/internal/config"
	"github.com/tomtom215/geoimport/internal/datastore"
	"github.com/tomtom215/geoimport/internal/handler"
	"github.com/tomtom215/geoimport/internal/limiter"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/objectstore"
	"github.com/tomtom215/geoimport/internal/ogr"
	"github.com/tomtom215/geoimport/internal/pipeline"
	"github.com/tomtom215/geoimport/internal/store"
	"github.com/tomtom215/geoimport/internal/supervisor"
	"github.com/tomtom215/geoimport/internal/supervisor/services"
	ws "github.com/tomtom215/geoimport/internal/websocket"

	_ "github.com/tomtom215/geoimport/docs" // generated swagger docs
)

// executionStore is what the pipeline, the limiter and the API need from
// either store backend.
type executionStore interface {
	pipeline.Store
	limiter.Counter
	api.ExecutionReader
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(runToken(os.Args[2:], os.Stdout, os.Stderr))
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("store", cfg.Store.Backend).
		Str("dispatch", cfg.Dispatch.Mode).
		Msg("Starting geoimport")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential startup
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// The hub is the store's notifier, so it exists before the store.
	hub := ws.NewHub()
	tree.AddWorkerService(hub)

	execStore, closeStore, err := openStore(cfg, hub)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := catalog.Open(ctx, cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() {
		if err := cat.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing catalog")
		}
	}()

	ds, err := datastore.Open(ctx, cfg.OGRDatastore(), datastore.Options{
		MaxConns:       cfg.Datastore.MaxConns,
		GeometryColumn: cfg.OGR.GeometryColumn,
	})
	if err != nil {
		return err
	}
	defer ds.Close()
	logging.Info().Str("host", cfg.Datastore.Host).Str("dbname", cfg.Datastore.DBName).Msg("Connected to datastore")

	stager, err := openStager(ctx, cfg)
	if err != nil {
		return err
	}

	lim := limiter.New(cfg.Upload.MaxParallelUploadsPerUser, cfg.Upload.PerUserLimits, limiter.Scope(cfg.Upload.Scope), execStore)
	builder := cfg.Builder()
	registry, err := handler.NewRegistry(
		handler.NewShapefileHandler(builder, lim),
		handler.NewGeoJSONHandler(builder, lim),
	)
	if err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfig{
		ModelPath:  cfg.Security.CasbinModelPath,
		PolicyPath: cfg.Security.CasbinPolicyPath,
	})
	if err != nil {
		return fmt.Errorf("create authorization enforcer: %w", err)
	}
	defer enforcer.Close()

	var auditor api.Auditor
	if cfg.Audit.Enabled {
		auditStore, err := audit.NewDuckDBStore(ctx, cat.DB())
		if err != nil {
			return fmt.Errorf("open audit store: %w", err)
		}
		auditLogger := audit.NewLogger(auditStore, cfg.AuditOptions())
		tree.AddWorkerService(auditLogger)
		auditor = auditLogger
	}

	orch := pipeline.New(pipeline.Dependencies{
		Registry:   registry,
		Store:      execStore,
		Catalog:    cat,
		Datastore:  ds,
		Runner:     ogr.NewRunner(cfg.RunnerConfig()),
		Stager:     stager,
		Authorizer: enforcer,
	})

	broker, closeDispatch, err := initDispatch(ctx, cfg, tree, orch)
	if err != nil {
		return err
	}
	defer closeDispatch()

	resumed, err := orch.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume executions: %w", err)
	}
	if resumed > 0 {
		logging.Info().Int("executions", resumed).Msg("Resumed executions left active by the previous run")
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == config.AuthModeJWT {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return fmt.Errorf("create JWT manager: %w", err)
		}
	} else {
		logging.Warn().
			Str("user", cfg.Security.AnonymousUser).
			Str("role", cfg.Security.DefaultRole).
			Msg("Authentication is DISABLED (AUTH_MODE=none); every request runs as the anonymous user")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	checks := []api.HealthCheck{
		{Name: "catalog", Ping: cat.Ping},
		{Name: "datastore", Ping: ds.Ping},
	}
	if broker != nil {
		checks = append(checks, api.HealthCheck{Name: "broker", Ping: broker})
	}

	h := api.NewHandler(api.Dependencies{
		Pipeline:     orch,
		Executions:   execStore,
		Resources:    cat,
		Capabilities: registry,
		Permissions:  enforcer,
		Hub:          hub,
		Audit:        auditor,
		Checks:       checks,
	}, cfg)
	router := api.NewRouter(h,
		auth.NewMiddleware(jwtManager, &cfg.Security),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.NewChiMiddlewareConfig(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)
	tree.LogUnstopped()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
}

// openStore opens the configured execution store. The returned func
// releases it.
func openStore(cfg *config.Config, notify store.Notifier) (executionStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		logging.Warn().Msg("Execution store is in memory; executions are lost on restart")
		return store.NewMemoryStore(notify), func() {}, nil
	default:
		db, err := store.OpenBadger(cfg.BadgerOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("open execution store: %w", err)
		}
		logging.Info().Str("path", cfg.Store.Path).Msg("Execution store opened")
		closeDB := func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing execution store")
			}
		}
		return store.NewBadgerStore(db, notify), closeDB, nil
	}
}

// openStager returns the MinIO stager when object storage is enabled.
func openStager(ctx context.Context, cfg *config.Config) (objectstore.Stager, error) {
	if !cfg.ObjectStore.Enabled {
		return objectstore.Noop{}, nil
	}
	m, err := objectstore.NewMinIO(cfg.ObjectStoreOptions())
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	if err := m.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("prepare object store bucket: %w", err)
	}
	logging.Info().Str("endpoint", cfg.ObjectStore.Endpoint).Str("bucket", cfg.ObjectStore.Bucket).Msg("Spatial file retention enabled")
	return m, nil
}
