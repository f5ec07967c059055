// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tomtom215/geoimport/internal/ogr"
)

const (
	// DefaultPostGISImage is the PostGIS image used for datastore tests
	DefaultPostGISImage = "postgis/postgis:16-3.4"

	// DefaultPostGISPort is the PostgreSQL port inside the container
	DefaultPostGISPort = "5432"

	postgisUser     = "geoimport"
	postgisPassword = "geoimport"
	postgisDB       = "geodata"
)

// PostGISContainer is a running PostGIS database.
type PostGISContainer struct {
	testcontainers.Container

	// Datastore holds the connection parameters for the container.
	Datastore ogr.Datastore
}

// PostGISOption configures the PostGIS container.
type PostGISOption func(*postgisConfig)

type postgisConfig struct {
	image        string
	startTimeout time.Duration
}

// WithPostGISImage sets a custom PostGIS Docker image.
func WithPostGISImage(image string) PostGISOption {
	return func(c *postgisConfig) {
		c.image = image
	}
}

// WithPostGISStartTimeout sets the timeout for waiting for PostgreSQL to start.
func WithPostGISStartTimeout(timeout time.Duration) PostGISOption {
	return func(c *postgisConfig) {
		c.startTimeout = timeout
	}
}

// NewPostGISContainer creates and starts a PostGIS container.
//
//	pg, err := testinfra.NewPostGISContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//	store, err := datastore.Open(ctx, pg.Datastore, datastore.Options{})
func NewPostGISContainer(ctx context.Context, opts ...PostGISOption) (*PostGISContainer, error) {
	cfg := &postgisConfig{
		image:        DefaultPostGISImage,
		startTimeout: 90 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{DefaultPostGISPort + "/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgisUser,
			"POSTGRES_PASSWORD": postgisPassword,
			"POSTGRES_DB":       postgisDB,
		},
		// The server restarts once after running the init scripts.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(DefaultPostGISPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create postgis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, DefaultPostGISPort+"/tcp")
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("parse mapped port %q: %w", mapped.Port(), err)
	}

	return &PostGISContainer{
		Container: container,
		Datastore: ogr.Datastore{
			Host:     host,
			Port:     port,
			User:     postgisUser,
			Password: postgisPassword,
			DBName:   postgisDB,
			SSLMode:  "disable",
		},
	}, nil
}
