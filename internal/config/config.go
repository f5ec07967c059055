// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package config

import (
	"time"

	"github.com/tomtom215/geoimport/internal/audit"
	"github.com/tomtom215/geoimport/internal/dispatch"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/objectstore"
	"github.com/tomtom215/geoimport/internal/ogr"
	"github.com/tomtom215/geoimport/internal/store"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any mapped setting
//
// Config is immutable after LoadWithKoanf and safe for concurrent reads.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Security    SecurityConfig    `koanf:"security"`
	Upload      UploadConfig      `koanf:"upload"`
	OGR         OGRConfig         `koanf:"ogr"`
	Datastore   DatastoreConfig   `koanf:"datastore"`
	Store       StoreConfig       `koanf:"store"`
	Catalog     CatalogConfig     `koanf:"catalog"`
	ObjectStore ObjectStoreConfig `koanf:"objectstore"`
	Dispatch    DispatchConfig    `koanf:"dispatch"`
	NATS        NATSConfig        `koanf:"nats"`
	Audit       AuditConfig       `koanf:"audit"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Authentication modes.
const (
	AuthModeNone = "none"
	AuthModeJWT  = "jwt"
)

// SecurityConfig holds authentication, authorization and rate limit settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	DefaultRole       string        `koanf:"default_role"`
	AnonymousUser     string        `koanf:"anonymous_user"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// Empty paths select the embedded casbin model and policy.
	CasbinModelPath  string `koanf:"casbin_model_path"`
	CasbinPolicyPath string `koanf:"casbin_policy_path"`
}

// UploadConfig holds admission and staging settings for submitted file sets.
type UploadConfig struct {
	// MaxParallelUploadsPerUser is the ceiling of non-terminal executions.
	MaxParallelUploadsPerUser int            `koanf:"max_parallel_uploads_per_user"`
	PerUserLimits             map[string]int `koanf:"per_user_limits"`
	Scope                     string         `koanf:"scope"` // user or system

	StagingDir    string `koanf:"staging_dir"`
	MaxUploadSize int64  `koanf:"max_upload_size"`
	MaxMemory     int64  `koanf:"max_memory"`
}

// OGRConfig holds conversion tool settings.
type OGRConfig struct {
	Tool           string        `koanf:"tool"`
	Timeout        time.Duration `koanf:"timeout"`
	OutputLimit    int           `koanf:"output_limit"`
	SpawnRate      float64       `koanf:"spawn_rate"`
	SpawnBurst     int           `koanf:"spawn_burst"`
	GlobalOptions  []string      `koanf:"global_options"`
	GeometryColumn string        `koanf:"geometry_column"`
}

// DatastoreConfig holds the destination PostGIS connection.
type DatastoreConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	Schema   string `koanf:"schema"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int32  `koanf:"max_conns"`
}

// Execution store backends.
const (
	StoreBadger = "badger"
	StoreMemory = "memory"
)

// StoreConfig selects the execution store.
type StoreConfig struct {
	Backend    string `koanf:"backend"`
	Path       string `koanf:"path"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// CatalogConfig holds the DuckDB resource catalog location.
type CatalogConfig struct {
	Path string `koanf:"path"` // empty means in-memory
}

// ObjectStoreConfig holds spatial file retention settings.
type ObjectStoreConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	Prefix    string `koanf:"prefix"`
	UseSSL    bool   `koanf:"use_ssl"`
}

// Dispatch modes.
const (
	DispatchPool = "pool"
	DispatchNATS = "nats"
)

// DispatchConfig selects and tunes the task dispatcher.
type DispatchConfig struct {
	Mode       string        `koanf:"mode"`
	Workers    int           `koanf:"workers"`
	MaxQueue   int           `koanf:"max_queue"`
	MaxRetries int           `koanf:"max_retries"`
	RetryDelay time.Duration `koanf:"retry_delay"`

	Topic                string        `koanf:"topic"`
	PoisonTopic          string        `koanf:"poison_topic"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	BreakerFailures      uint32        `koanf:"breaker_failures"`
	BreakerTimeout       time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig holds JetStream broker settings used when dispatch mode is nats.
type NATSConfig struct {
	URL             string        `koanf:"url"`
	EmbeddedServer  bool          `koanf:"embedded_server"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	StoreDir        string        `koanf:"store_dir"`
	MaxMemory       int64         `koanf:"max_memory"`
	MaxStore        int64         `koanf:"max_store"`
	Stream          string        `koanf:"stream"`
	MaxAge          time.Duration `koanf:"max_age"`
	DuplicateWindow time.Duration `koanf:"duplicate_window"`
	DurableName     string        `koanf:"durable_name"`
	QueueGroup      string        `koanf:"queue_group"`
	Subscribers     int           `koanf:"subscribers"`
	AckWait         time.Duration `koanf:"ack_wait"`
	MaxDeliver      int           `koanf:"max_deliver"`
}

// AuditConfig holds audit trail settings. The trail lives in the catalog
// database.
type AuditConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BufferSize      int           `koanf:"buffer_size"`
	Retention       time.Duration `koanf:"retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// RunnerConfig converts the OGR settings for ogr.NewRunner.
func (c *Config) RunnerConfig() ogr.RunnerConfig {
	rc := ogr.DefaultRunnerConfig()
	rc.Timeout = c.OGR.Timeout
	if c.OGR.OutputLimit > 0 {
		rc.OutputLimit = c.OGR.OutputLimit
	}
	rc.SpawnRate = c.OGR.SpawnRate
	rc.SpawnBurst = c.OGR.SpawnBurst
	return rc
}

// Builder returns the command builder for the configured tool and datastore.
func (c *Config) Builder() *ogr.Builder {
	return &ogr.Builder{
		Tool:           c.OGR.Tool,
		Datastore:      c.OGRDatastore(),
		GlobalOpts:     append([]string(nil), c.OGR.GlobalOptions...),
		GeometryColumn: c.OGR.GeometryColumn,
	}
}

// OGRDatastore converts the datastore settings to connection parameters.
func (c *Config) OGRDatastore() ogr.Datastore {
	return ogr.Datastore{
		Host:     c.Datastore.Host,
		Port:     c.Datastore.Port,
		User:     c.Datastore.User,
		Password: c.Datastore.Password,
		DBName:   c.Datastore.DBName,
		Schema:   c.Datastore.Schema,
		SSLMode:  c.Datastore.SSLMode,
	}
}

// ObjectStoreOptions converts the object store settings for objectstore.NewMinIO.
func (c *Config) ObjectStoreOptions() objectstore.Config {
	return objectstore.Config{
		Endpoint:        c.ObjectStore.Endpoint,
		AccessKeyID:     c.ObjectStore.AccessKey,
		SecretAccessKey: c.ObjectStore.SecretKey,
		Region:          c.ObjectStore.Region,
		Bucket:          c.ObjectStore.Bucket,
		Prefix:          c.ObjectStore.Prefix,
		UseSSL:          c.ObjectStore.UseSSL,
	}
}

// BadgerOptions converts the store settings for store.OpenBadger.
func (c *Config) BadgerOptions() store.BadgerOptions {
	return store.BadgerOptions{
		Path:       c.Store.Path,
		SyncWrites: c.Store.SyncWrites,
	}
}

// PoolConfig converts the dispatch settings for dispatch.NewPool.
func (c *Config) PoolConfig() dispatch.PoolConfig {
	return dispatch.PoolConfig{
		Workers:    c.Dispatch.Workers,
		MaxQueue:   c.Dispatch.MaxQueue,
		MaxRetries: c.Dispatch.MaxRetries,
		RetryDelay: c.Dispatch.RetryDelay,
	}
}

// ConsumerConfig converts the dispatch settings for dispatch.NewConsumer.
func (c *Config) ConsumerConfig() dispatch.ConsumerConfig {
	cc := dispatch.DefaultConsumerConfig()
	cc.Topic = c.Dispatch.Topic
	cc.PoisonTopic = c.Dispatch.PoisonTopic
	cc.RetryMaxRetries = c.Dispatch.MaxRetries
	cc.RetryInitialInterval = c.Dispatch.RetryInitialInterval
	cc.RetryMaxInterval = c.Dispatch.RetryMaxInterval
	return cc
}

// BreakerConfig returns the publish circuit breaker settings.
func (c *Config) BreakerConfig() dispatch.BreakerConfig {
	bc := dispatch.DefaultBreakerConfig("task-publisher")
	if c.Dispatch.BreakerFailures > 0 {
		bc.FailureThreshold = c.Dispatch.BreakerFailures
	}
	if c.Dispatch.BreakerTimeout > 0 {
		bc.Timeout = c.Dispatch.BreakerTimeout
	}
	return bc
}

// NATSOptions converts the broker settings for the dispatch package.
func (c *Config) NATSOptions() dispatch.NATSConfig {
	nc := dispatch.DefaultNATSConfig()
	nc.URL = c.NATS.URL
	nc.Embedded = c.NATS.EmbeddedServer
	nc.Host = c.NATS.Host
	nc.Port = c.NATS.Port
	nc.StoreDir = c.NATS.StoreDir
	nc.MaxMemory = c.NATS.MaxMemory
	nc.MaxStore = c.NATS.MaxStore
	nc.Stream = c.NATS.Stream
	nc.Subjects = []string{c.Dispatch.Topic, c.Dispatch.PoisonTopic}
	nc.MaxAge = c.NATS.MaxAge
	nc.DuplicateWindow = c.NATS.DuplicateWindow
	nc.DurableName = c.NATS.DurableName
	nc.QueueGroup = c.NATS.QueueGroup
	nc.Subscribers = c.NATS.Subscribers
	nc.AckWait = c.NATS.AckWait
	nc.MaxDeliver = c.NATS.MaxDeliver
	return nc
}

// AuditOptions converts the audit settings for audit.NewLogger.
func (c *Config) AuditOptions() audit.Config {
	return audit.Config{
		BufferSize:      c.Audit.BufferSize,
		Retention:       c.Audit.Retention,
		CleanupInterval: c.Audit.CleanupInterval,
	}
}

// LoggingOptions converts the logging settings for logging.Init.
func (c *Config) LoggingOptions() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	return lc
}
