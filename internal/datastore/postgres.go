// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package datastore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// DefaultSchema is used when the datastore configuration names none.
const DefaultSchema = "public"

// fidColumn is the primary key ogr2ogr adds to every table it creates.
const fidColumn = "ogc_fid"

// mergeLedger records the executions whose staging table was merged.
const mergeLedger = "geoimport_merges"

// Options tunes the connection pool.
type Options struct {
	MaxConns       int32
	GeometryColumn string
}

// Postgres is the PostGIS destination datastore.
type Postgres struct {
	pool           *pgxpool.Pool
	schema         string
	geometryColumn string
}

// DSN renders the pgx connection URL for ds.
func DSN(ds ogr.Datastore) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(ds.User, ds.Password),
		Host:   net.JoinHostPort(ds.Host, strconv.Itoa(ds.Port)),
		Path:   "/" + ds.DBName,
	}
	q := url.Values{}
	if ds.SSLMode != "" {
		q.Set("sslmode", ds.SSLMode)
	}
	if ds.Schema != "" {
		q.Set("search_path", ds.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Open connects to the datastore and verifies the connection.
func Open(ctx context.Context, ds ogr.Datastore, opts Options) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(DSN(ds))
	if err != nil {
		return nil, fmt.Errorf("parse datastore config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to datastore: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping datastore %s: %w", ds.Host, err)
	}
	p := New(pool, ds.Schema, opts.GeometryColumn)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool, schema, geometryColumn string) *Postgres {
	if schema == "" {
		schema = DefaultSchema
	}
	if geometryColumn == "" {
		geometryColumn = ogr.DefaultGeometryColumn
	}
	return &Postgres{pool: pool, schema: schema, geometryColumn: geometryColumn}
}

// Close closes the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// EnsureSchema creates the merge ledger.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS ` + p.qualified(mergeLedger) + ` (
		execution_id TEXT PRIMARY KEY,
		target_table TEXT NOT NULL,
		rows_written BIGINT NOT NULL,
		merged_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create merge ledger: %w", err)
	}
	return nil
}

// qualified returns the quoted, schema-qualified name of table.
func (p *Postgres) qualified(table string) string {
	return pgx.Identifier{p.schema, table}.Sanitize()
}

// TableExists reports whether table exists in the datastore schema.
func (p *Postgres) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2)`,
		p.schema, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return exists, nil
}

// DropTable drops table if it exists.
func (p *Postgres) DropTable(ctx context.Context, table string) error {
	if _, err := p.pool.Exec(ctx, `DROP TABLE IF EXISTS `+p.qualified(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// CreateTableLike creates dst with the structure of src. It does nothing
// when dst already exists.
func (p *Postgres) CreateTableLike(ctx context.Context, src, dst string) error {
	exists, err := p.TableExists(ctx, src)
	if err != nil {
		return err
	}
	if !exists {
		return models.Errorf(models.ErrResourceNotFound, "source table %s does not exist", src)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (LIKE %s INCLUDING DEFAULTS INCLUDING CONSTRAINTS INCLUDING INDEXES)`,
		p.qualified(dst), p.qualified(src))
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s like %s: %w", dst, src, err)
	}
	return nil
}

// CopyRows copies every row of src into dst and returns the number
// copied. It copies nothing when dst already holds rows, which makes a
// redelivered copy step harmless.
func (p *Postgres) CopyRows(ctx context.Context, src, dst string) (int64, bool, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("begin copy: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var populated bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+p.qualified(dst)+`)`).Scan(&populated); err != nil {
		return 0, false, fmt.Errorf("check %s: %w", dst, err)
	}
	if populated {
		return 0, true, nil
	}

	tag, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s`, p.qualified(dst), p.qualified(src)))
	if err != nil {
		return 0, false, fmt.Errorf("copy rows %s to %s: %w", src, dst, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("commit copy: %w", err)
	}
	return tag.RowsAffected(), false, nil
}

// Columns returns the column names of table in ordinal order.
func (p *Postgres) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`,
		p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	return cols, nil
}

// Merged reports whether the staging table of execID was already merged.
func (p *Postgres) Merged(ctx context.Context, execID string) (bool, error) {
	var merged bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+p.qualified(mergeLedger)+` WHERE execution_id = $1)`,
		execID).Scan(&merged)
	if err != nil {
		return false, fmt.Errorf("check merge of %s: %w", execID, err)
	}
	return merged, nil
}

// MergeFrom moves the rows of staging into target and drops staging. With
// a key, target rows whose key matches a staging row are replaced first.
// Columns are matched by name and the generated feature id is left to
// target. The merge is recorded under execID in the same transaction, so
// a second call for execID changes nothing and reports true.
func (p *Postgres) MergeFrom(ctx context.Context, execID, staging, target, key string) (int64, bool, error) {
	merged, err := p.Merged(ctx, execID)
	if err != nil {
		return 0, false, err
	}
	if merged {
		return 0, true, p.DropTable(ctx, staging)
	}

	stagingCols, err := p.Columns(ctx, staging)
	if err != nil {
		return 0, false, err
	}
	if len(stagingCols) == 0 {
		return 0, false, models.Errorf(models.ErrResourceNotFound, "staging table %s does not exist", staging)
	}
	targetCols, err := p.Columns(ctx, target)
	if err != nil {
		return 0, false, err
	}
	if key != "" && (!slices.Contains(stagingCols, key) || !slices.Contains(targetCols, key)) {
		return 0, false, models.Errorf(models.ErrInvalidParams, "upsert key %q is not a column of both %s and %s", key, staging, target)
	}

	var cols []string
	for _, c := range targetCols {
		if c != fidColumn && slices.Contains(stagingCols, c) {
			cols = append(cols, pgx.Identifier{c}.Sanitize())
		}
	}
	if len(cols) == 0 {
		return 0, false, models.Errorf(models.ErrInvalidParams, "%s shares no columns with %s", staging, target)
	}
	colList := strings.Join(cols, ", ")

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The ledger row is claimed first so a concurrent merge for the same
	// execution blocks on it and then finds nothing to do.
	claim, err := tx.Exec(ctx,
		`INSERT INTO `+p.qualified(mergeLedger)+` (execution_id, target_table, rows_written) VALUES ($1, $2, 0)
		 ON CONFLICT (execution_id) DO NOTHING`,
		execID, target)
	if err != nil {
		return 0, false, fmt.Errorf("record merge of %s: %w", execID, err)
	}
	if claim.RowsAffected() == 0 {
		return 0, true, nil
	}

	var replaced int64
	if key != "" {
		keyIdent := pgx.Identifier{key}.Sanitize()
		deleted, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s t USING %s s WHERE t.%s = s.%s`,
			p.qualified(target), p.qualified(staging), keyIdent, keyIdent))
		if err != nil {
			return 0, false, fmt.Errorf("delete matched rows from %s: %w", target, err)
		}
		replaced = deleted.RowsAffected()
	}
	inserted, err := tx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s`,
		p.qualified(target), colList, colList, p.qualified(staging)))
	if err != nil {
		return 0, false, fmt.Errorf("insert rows into %s: %w", target, err)
	}
	if _, err := tx.Exec(ctx, `UPDATE `+p.qualified(mergeLedger)+` SET rows_written = $2 WHERE execution_id = $1`,
		execID, inserted.RowsAffected()); err != nil {
		return 0, false, fmt.Errorf("record merge of %s: %w", execID, err)
	}
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+p.qualified(staging)); err != nil {
		return 0, false, fmt.Errorf("drop table %s: %w", staging, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("commit merge: %w", err)
	}

	logging.Debug().
		Str("target", target).
		Int64("replaced", replaced).
		Int64("written", inserted.RowsAffected()).
		Msg("Merged staging rows")
	return inserted.RowsAffected(), false, nil
}

// LayerInfo reads the feature count, extent and declared geometry type
// of table. The geometry type is the raw PostGIS name, e.g. MULTIPOLYGON.
func (p *Postgres) LayerInfo(ctx context.Context, table string) (models.LayerInfo, error) {
	var info models.LayerInfo

	err := p.pool.QueryRow(ctx,
		`SELECT type FROM geometry_columns WHERE f_table_schema = $1 AND f_table_name = $2 AND f_geometry_column = $3`,
		p.schema, table, p.geometryColumn).Scan(&info.GeometryType)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return info, fmt.Errorf("read geometry type of %s: %w", table, err)
	}

	geom := pgx.Identifier{p.geometryColumn}.Sanitize()
	var minX, minY, maxX, maxY *float64
	err = p.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT (SELECT count(*) FROM %[2]s), ST_XMin(e), ST_YMin(e), ST_XMax(e), ST_YMax(e)
		 FROM (SELECT ST_Extent(%[1]s)::box3d AS e FROM %[2]s) ext`,
		geom, p.qualified(table)),
	).Scan(&info.FeatureCount, &minX, &minY, &maxX, &maxY)
	if err != nil {
		return info, fmt.Errorf("read extent of %s: %w", table, err)
	}
	if minX != nil && minY != nil && maxX != nil && maxY != nil {
		info.BBox = []float64{*minX, *minY, *maxX, *maxY}
	}
	return info, nil
}
