// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package objectstore retains the original upload files in S3-compatible
// object storage when a request asks for store_spatial_files.
package objectstore

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/logging"
)

// Stager copies an execution's files to durable storage.
type Stager interface {
	// Stage stores every file of fs and returns the stored location per role.
	Stage(ctx context.Context, execID string, fs fileset.FileSet) (map[fileset.Role]string, error)

	// Enabled reports whether staging stores anything.
	Enabled() bool
}

// Config configures the MinIO stager.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Prefix          string
	UseSSL          bool
}

// MinIO stages files in a MinIO or S3 bucket.
type MinIO struct {
	client *minio.Client
	bucket string
	prefix string
	region string
}

// NewMinIO creates the stager. The endpoint may be a bare host:port or a
// URL, whose https scheme enables TLS.
func NewMinIO(cfg Config) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("objectstore endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore bucket is required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIO{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, region: cfg.Region}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (m *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	logging.Info().Str("bucket", m.bucket).Msg("Created spatial file bucket")
	return nil
}

// Enabled implements Stager.
func (m *MinIO) Enabled() bool {
	return true
}

// ObjectKey returns the key a staged file is stored under:
// <prefix>/<execution id>/<file name>.
func ObjectKey(prefix, execID, file string) string {
	return path.Join(prefix, execID, filepath.Base(file))
}

// Stage implements Stager. Files are uploaded in role order; a failure
// stops at the first file that could not be stored.
func (m *MinIO) Stage(ctx context.Context, execID string, fs fileset.FileSet) (map[fileset.Role]string, error) {
	roles := make([]fileset.Role, 0, len(fs))
	for role := range fs {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	staged := make(map[fileset.Role]string, len(fs))
	for _, role := range roles {
		file := fs[role]
		key := ObjectKey(m.prefix, execID, file)
		contentType := mime.TypeByExtension(filepath.Ext(file))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		info, err := m.client.FPutObject(ctx, m.bucket, key, file, minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			return staged, fmt.Errorf("stage %s: %w", filepath.Base(file), err)
		}
		staged[role] = "s3://" + m.bucket + "/" + key

		logging.Ctx(ctx).Debug().
			Str("object", key).
			Int64("size", info.Size).
			Msg("Staged spatial file")
	}
	return staged, nil
}

// Noop is the Stager used when object storage is disabled.
type Noop struct{}

// Stage implements Stager and stores nothing.
func (Noop) Stage(context.Context, string, fileset.FileSet) (map[fileset.Role]string, error) {
	return nil, nil
}

// Enabled implements Stager.
func (Noop) Enabled() bool {
	return false
}
