// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable holding an explicit config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geoimport/config.yaml",
	"/etc/geoimport/config.yml",
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			Environment:     "production",
		},
		Security: SecurityConfig{
			AuthMode:        AuthModeJWT,
			SessionTimeout:  24 * time.Hour,
			DefaultRole:     "editor",
			AnonymousUser:   "anonymous",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{},
		},
		Upload: UploadConfig{
			MaxParallelUploadsPerUser: 5,
			PerUserLimits:             map[string]int{},
			Scope:                     "user",
			StagingDir:                "/data/uploads",
			MaxUploadSize:             2 << 30,
			MaxMemory:                 32 << 20,
		},
		OGR: OGRConfig{
			Tool:           "ogr2ogr",
			Timeout:        30 * time.Minute,
			OutputLimit:    64 << 10,
			SpawnRate:      2,
			SpawnBurst:     4,
			GlobalOptions:  []string{},
			GeometryColumn: "geometry",
		},
		Datastore: DatastoreConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "geoimport",
			DBName:   "geoimport_data",
			Schema:   "public",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Store: StoreConfig{
			Backend: StoreBadger,
			Path:    "/data/executions",
		},
		Catalog: CatalogConfig{
			Path: "/data/catalog.duckdb",
		},
		ObjectStore: ObjectStoreConfig{
			Enabled: false,
			Region:  "us-east-1",
			Bucket:  "geoimport",
			Prefix:  "uploads",
		},
		Dispatch: DispatchConfig{
			Mode:                 DispatchPool,
			Workers:              4,
			MaxQueue:             1024,
			MaxRetries:           3,
			RetryDelay:           time.Second,
			Topic:                "geoimport.tasks",
			PoisonTopic:          "geoimport.tasks.poison",
			RetryInitialInterval: time.Second,
			RetryMaxInterval:     30 * time.Second,
			BreakerFailures:      5,
			BreakerTimeout:       30 * time.Second,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  true,
			Host:            "127.0.0.1",
			Port:            4222,
			StoreDir:        "/data/nats/jetstream",
			MaxMemory:       256 << 20,
			MaxStore:        1 << 30,
			Stream:          "GEOIMPORT_TASKS",
			MaxAge:          7 * 24 * time.Hour,
			DuplicateWindow: 2 * time.Minute,
			DurableName:     "geoimport-worker",
			QueueGroup:      "geoimport-workers",
			Subscribers:     4,
			AckWait:         2 * time.Hour,
			MaxDeliver:      5,
		},
		Audit: AuditConfig{
			Enabled:         true,
			BufferSize:      1000,
			Retention:       90 * 24 * time.Hour,
			CleanupInterval: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// MAX_PARALLEL_UPLOADS_PER_USER -> upload.max_parallel_uploads_per_user
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processMapFields(k); err != nil {
		return nil, fmt.Errorf("failed to process map fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"ogr.global_options",
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := splitList(strVal)
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// mapConfigPaths are parsed as comma-separated key=value lists when set from the environment.
var mapConfigPaths = []string{
	"upload.per_user_limits",
}

// processMapFields converts "alice=2,bob=10" into a map of integers.
func processMapFields(k *koanf.Koanf) error {
	for _, path := range mapConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		out := map[string]any{}
		for _, pair := range splitList(strVal) {
			key, val, found := strings.Cut(pair, "=")
			if !found {
				return fmt.Errorf("%s: entry %q is not key=value", path, pair)
			}
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return fmt.Errorf("%s: entry %q: %w", path, pair, err)
			}
			out[strings.TrimSpace(key)] = n
		}
		// Delete first so the defaults' empty map does not merge with the override.
		k.Delete(path)
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",
	"environment":        "server.environment",

	// Security
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"default_role":        "security.default_role",
	"anonymous_user":      "security.anonymous_user",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"casbin_model_path":   "security.casbin_model_path",
	"casbin_policy_path":  "security.casbin_policy_path",

	// Upload admission
	"max_parallel_uploads_per_user": "upload.max_parallel_uploads_per_user",
	"upload_per_user_limits":        "upload.per_user_limits",
	"upload_limit_scope":            "upload.scope",
	"upload_staging_dir":            "upload.staging_dir",
	"upload_max_size":               "upload.max_upload_size",
	"upload_max_memory":             "upload.max_memory",

	// Conversion tool
	"ogr2ogr_path":        "ogr.tool",
	"ogr_timeout":         "ogr.timeout",
	"ogr_output_limit":    "ogr.output_limit",
	"ogr_spawn_rate":      "ogr.spawn_rate",
	"ogr_spawn_burst":     "ogr.spawn_burst",
	"ogr_global_options":  "ogr.global_options",
	"ogr_geometry_column": "ogr.geometry_column",

	// Destination datastore
	"datastore_host":      "datastore.host",
	"datastore_port":      "datastore.port",
	"datastore_user":      "datastore.user",
	"datastore_password":  "datastore.password",
	"datastore_dbname":    "datastore.dbname",
	"datastore_schema":    "datastore.schema",
	"datastore_sslmode":   "datastore.sslmode",
	"datastore_max_conns": "datastore.max_conns",

	// Execution store and catalog
	"store_backend":     "store.backend",
	"store_path":        "store.path",
	"store_sync_writes": "store.sync_writes",
	"catalog_path":      "catalog.path",

	// Object storage
	"objectstore_enabled":    "objectstore.enabled",
	"objectstore_endpoint":   "objectstore.endpoint",
	"objectstore_access_key": "objectstore.access_key",
	"objectstore_secret_key": "objectstore.secret_key",
	"objectstore_region":     "objectstore.region",
	"objectstore_bucket":     "objectstore.bucket",
	"objectstore_prefix":     "objectstore.prefix",
	"objectstore_use_ssl":    "objectstore.use_ssl",

	// Dispatch
	"dispatch_mode":                   "dispatch.mode",
	"dispatch_workers":                "dispatch.workers",
	"dispatch_max_queue":              "dispatch.max_queue",
	"dispatch_max_retries":            "dispatch.max_retries",
	"dispatch_retry_delay":            "dispatch.retry_delay",
	"dispatch_topic":                  "dispatch.topic",
	"dispatch_poison_topic":           "dispatch.poison_topic",
	"dispatch_retry_initial_interval": "dispatch.retry_initial_interval",
	"dispatch_retry_max_interval":     "dispatch.retry_max_interval",
	"dispatch_breaker_failures":       "dispatch.breaker_failures",
	"dispatch_breaker_timeout":        "dispatch.breaker_timeout",

	// Audit trail
	"audit_enabled":          "audit.enabled",
	"audit_buffer_size":      "audit.buffer_size",
	"audit_retention":        "audit.retention",
	"audit_cleanup_interval": "audit.cleanup_interval",

	// NATS
	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_host":             "nats.host",
	"nats_port":             "nats.port",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_stream":           "nats.stream",
	"nats_max_age":          "nats.max_age",
	"nats_duplicate_window": "nats.duplicate_window",
	"nats_durable_name":     "nats.durable_name",
	"nats_queue_group":      "nats.queue_group",
	"nats_subscribers":      "nats.subscribers",
	"nats_ack_wait":         "nats.ack_wait",
	"nats_max_deliver":      "nats.max_deliver",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - MAX_PARALLEL_UPLOADS_PER_USER -> upload.max_parallel_uploads_per_user
//   - DATASTORE_PASSWORD -> datastore.password
//   - DISPATCH_MODE -> dispatch.mode
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
