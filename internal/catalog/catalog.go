// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// maxAlternateAttempts bounds the suffix search in ReserveAlternate.
const maxAlternateAttempts = 1000

// Catalog stores alternates and resources.
type Catalog struct {
	conn *sql.DB

	// reserveMu serializes the read-then-insert of ReserveAlternate within
	// the process; the primary key still guards against other writers.
	reserveMu sync.Mutex
	now       func() time.Time
}

// Open opens (or creates) the catalog database at path. An empty path or
// ":memory:" opens an in-memory database.
func Open(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
			}
		}
	}

	// Disable auto-install/auto-load; the catalog uses no extensions
	connStr := path + "?autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	c := &Catalog{conn: conn, now: time.Now}
	if err := c.createTables(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.conn.Close()
}

// DB returns the underlying connection for tables kept alongside the
// catalog, such as the audit trail.
func (c *Catalog) DB() *sql.DB {
	return c.conn
}

// Ping checks the database connection.
func (c *Catalog) Ping(ctx context.Context) error {
	return c.conn.PingContext(ctx)
}

func (c *Catalog) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS alternates (
			name TEXT PRIMARY KEY,
			execution_id TEXT NOT NULL,
			reserved_at TIMESTAMP NOT NULL,
			published BOOLEAN NOT NULL DEFAULT false,
			geometry_type TEXT,
			feature_count BIGINT,
			bbox TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS resources (
			id TEXT PRIMARY KEY,
			alternate TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			owner TEXT NOT NULL,
			handler_id TEXT NOT NULL,
			execution_id TEXT NOT NULL,
			source_resource TEXT,
			geometry_type TEXT,
			feature_count BIGINT,
			bbox TEXT,
			published BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_owner ON resources(owner)`,
	}
	for _, query := range queries {
		if _, err := c.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// candidate returns the n-th alternate for base: base, base_1, base_2...
// truncating base so the result stays a valid identifier.
func candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	suffix := "_" + strconv.Itoa(n)
	if len(base)+len(suffix) > ogr.MaxLayerName {
		base = base[:ogr.MaxLayerName-len(suffix)]
	}
	return base + suffix
}

// ReserveAlternate reserves a unique layer name derived from base for
// execID and returns it. With overwrite the sanitized base is taken over
// when it names a published layer. A name still held by an execution in
// flight is never taken over; the search falls back to suffixed names as
// without overwrite. Calling it again for the same execution returns the
// name already reserved.
func (c *Catalog) ReserveAlternate(ctx context.Context, base, execID string, overwrite bool) (string, error) {
	c.reserveMu.Lock()
	defer c.reserveMu.Unlock()

	var held string
	err := c.conn.QueryRowContext(ctx,
		`SELECT name FROM alternates WHERE execution_id = ? ORDER BY reserved_at LIMIT 1`, execID).Scan(&held)
	switch {
	case err == nil:
		return held, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("look up reserved alternate: %w", err)
	}

	name := ogr.LaunderLayerName(base)
	now := c.now().UTC()

	if overwrite {
		// The takeover clears published so a second overwrite of the same
		// layer sees it in flight until this execution publishes it again.
		res, err := c.conn.ExecContext(ctx,
			`UPDATE alternates SET execution_id = ?, reserved_at = ?, published = false
			 WHERE name = ? AND published`,
			execID, now, name)
		if err != nil {
			return "", fmt.Errorf("reserve alternate %s: %w", name, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 1 {
			logging.Debug().Str("alternate", name).Str("execution_id", execID).Msg("Taking over published layer")
			return name, nil
		}
	}

	for n := 0; n < maxAlternateAttempts; n++ {
		alt := candidate(name, n)
		res, err := c.conn.ExecContext(ctx,
			`INSERT INTO alternates (name, execution_id, reserved_at) VALUES (?, ?, ?) ON CONFLICT (name) DO NOTHING`,
			alt, execID, now)
		if err != nil {
			return "", fmt.Errorf("reserve alternate %s: %w", alt, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 1 {
			if n > 0 {
				logging.Debug().Str("base", name).Str("alternate", alt).Msg("Layer name taken, using suffixed alternate")
			}
			return alt, nil
		}
	}
	return "", models.Errorf(models.ErrAlternateTaken, "no free layer name for %s after %d attempts", name, maxAlternateAttempts)
}

// ReleaseAlternates drops the reservations an execution holds that were
// never published, so a failed import does not keep its name forever. A
// name it took over from a resource goes back to being published.
func (c *Catalog) ReleaseAlternates(ctx context.Context, execID string) error {
	c.reserveMu.Lock()
	defer c.reserveMu.Unlock()

	_, err := c.conn.ExecContext(ctx,
		`UPDATE alternates SET published = true WHERE execution_id = ? AND NOT published
		 AND name IN (SELECT alternate FROM resources)`, execID)
	if err != nil {
		return fmt.Errorf("release alternates: %w", err)
	}
	_, err = c.conn.ExecContext(ctx,
		`DELETE FROM alternates WHERE execution_id = ? AND NOT published`, execID)
	if err != nil {
		return fmt.Errorf("release alternates: %w", err)
	}
	return nil
}

// MarkPublished records the layer information of alternate and flags it
// published.
func (c *Catalog) MarkPublished(ctx context.Context, alternate, execID string, info models.LayerInfo) error {
	bbox, err := encodeBBox(info.BBox)
	if err != nil {
		return err
	}
	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO alternates (name, execution_id, reserved_at, published, geometry_type, feature_count, bbox)
		 VALUES (?, ?, ?, true, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET published = true, geometry_type = excluded.geometry_type,
		   feature_count = excluded.feature_count, bbox = excluded.bbox`,
		alternate, execID, c.now().UTC(), info.GeometryType, info.FeatureCount, bbox)
	if err != nil {
		return fmt.Errorf("mark %s published: %w", alternate, err)
	}
	return nil
}

// CreateResource inserts r, or refreshes and returns the resource that
// already exists for r.Alternate. The returned resource carries its ID.
func (c *Catalog) CreateResource(ctx context.Context, r models.Resource) (*models.Resource, error) {
	existing, err := c.GetResourceByAlternate(ctx, r.Alternate)
	switch {
	case err == nil:
		return c.refreshResource(ctx, existing, r.Layer)
	case !errors.Is(err, models.ErrResourceNotFound):
		return nil, err
	}

	bbox, err := encodeBBox(r.Layer.BBox)
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := c.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	r.Published = true

	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO resources (id, alternate, title, owner, handler_id, execution_id, source_resource,
		   geometry_type, feature_count, bbox, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Alternate, r.Title, r.Owner, r.HandlerID, r.ExecutionID, nullString(r.SourceResource),
		r.Layer.GeometryType, r.Layer.FeatureCount, bbox, r.Published, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create resource %s: %w", r.Alternate, err)
	}
	return &r, nil
}

func (c *Catalog) refreshResource(ctx context.Context, r *models.Resource, info models.LayerInfo) (*models.Resource, error) {
	if info.GeometryType == "" && info.FeatureCount == 0 && len(info.BBox) == 0 {
		return r, nil
	}
	bbox, err := encodeBBox(info.BBox)
	if err != nil {
		return nil, err
	}
	now := c.now().UTC()
	_, err = c.conn.ExecContext(ctx,
		`UPDATE resources SET geometry_type = ?, feature_count = ?, bbox = ?, updated_at = ? WHERE id = ?`,
		info.GeometryType, info.FeatureCount, bbox, now, r.ID)
	if err != nil {
		return nil, fmt.Errorf("update resource %s: %w", r.ID, err)
	}
	r.Layer = info
	r.UpdatedAt = now
	return r, nil
}

const resourceColumns = `id, alternate, title, owner, handler_id, execution_id, source_resource,
	geometry_type, feature_count, bbox, published, created_at, updated_at`

// GetResource returns the resource with id.
func (c *Catalog) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	row := c.conn.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.Errorf(models.ErrResourceNotFound, "resource %s not found", id)
	}
	return r, err
}

// GetResourceByAlternate returns the resource published under alternate.
func (c *Catalog) GetResourceByAlternate(ctx context.Context, alternate string) (*models.Resource, error) {
	row := c.conn.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE alternate = ?`, alternate)
	r, err := scanResource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.Errorf(models.ErrResourceNotFound, "no resource for layer %s", alternate)
	}
	return r, err
}

// ListResources returns the resources of owner, newest first. An empty
// owner lists every resource.
func (c *Catalog) ListResources(ctx context.Context, owner string) ([]*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	var out []*models.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(s scanner) (*models.Resource, error) {
	var (
		r            models.Resource
		source       sql.NullString
		geometryType sql.NullString
		featureCount sql.NullInt64
		bbox         sql.NullString
	)
	err := s.Scan(&r.ID, &r.Alternate, &r.Title, &r.Owner, &r.HandlerID, &r.ExecutionID, &source,
		&geometryType, &featureCount, &bbox, &r.Published, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan resource: %w", err)
	}
	r.SourceResource = source.String
	r.Layer.GeometryType = geometryType.String
	r.Layer.FeatureCount = featureCount.Int64
	if bbox.Valid && bbox.String != "" {
		if err := json.Unmarshal([]byte(bbox.String), &r.Layer.BBox); err != nil {
			return nil, fmt.Errorf("decode bbox of %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func encodeBBox(bbox []float64) (sql.NullString, error) {
	if len(bbox) == 0 {
		return sql.NullString{}, nil
	}
	if len(bbox) != 4 {
		return sql.NullString{}, fmt.Errorf("bbox needs 4 values, got %d", len(bbox))
	}
	data, err := json.Marshal(bbox)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode bbox: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
