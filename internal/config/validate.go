// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateSecurity,
		c.validateUpload,
		c.validateOGR,
		c.validateDatastore,
		c.validateStore,
		c.validateObjectStore,
		c.validateDispatch,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Roles known to the authorization policy.
var validRoles = map[string]bool{
	"viewer": true,
	"editor": true,
	"admin":  true,
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateSecurity() error {
	switch c.Security.AuthMode {
	case AuthModeNone:
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=none is not allowed when ENVIRONMENT=production")
		}
	case AuthModeJWT:
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
		if c.Security.SessionTimeout <= 0 {
			return fmt.Errorf("SESSION_TIMEOUT must be positive")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be one of: none, jwt")
	}

	if !validRoles[c.Security.DefaultRole] {
		return fmt.Errorf("DEFAULT_ROLE must be one of: viewer, editor, admin")
	}
	if c.Security.AuthMode != AuthModeNone && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production with authentication enabled")
	}
	if (c.Security.CasbinModelPath == "") != (c.Security.CasbinPolicyPath == "") {
		return fmt.Errorf("CASBIN_MODEL_PATH and CASBIN_POLICY_PATH must be set together")
	}
	return c.validateRateLimits()
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS reports whether wildcard CORS is combined with authentication.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.Security.AuthMode != AuthModeNone && c.hasWildcardCORS()
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.MaxParallelUploadsPerUser < 1 {
		return fmt.Errorf("MAX_PARALLEL_UPLOADS_PER_USER must be at least 1")
	}
	for user, n := range c.Upload.PerUserLimits {
		if n < 1 {
			return fmt.Errorf("UPLOAD_PER_USER_LIMITS: limit for %q must be at least 1", user)
		}
	}
	if c.Upload.Scope != "user" && c.Upload.Scope != "system" {
		return fmt.Errorf("UPLOAD_LIMIT_SCOPE must be one of: user, system")
	}
	if c.Upload.StagingDir == "" {
		return fmt.Errorf("UPLOAD_STAGING_DIR is required")
	}
	if c.Upload.MaxUploadSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE must be positive")
	}
	if c.Upload.MaxMemory <= 0 || c.Upload.MaxMemory > c.Upload.MaxUploadSize {
		return fmt.Errorf("UPLOAD_MAX_MEMORY must be positive and no larger than UPLOAD_MAX_SIZE")
	}
	return nil
}

func (c *Config) validateOGR() error {
	if c.OGR.Tool == "" {
		return fmt.Errorf("OGR2OGR_PATH is required")
	}
	if c.OGR.Timeout <= 0 {
		return fmt.Errorf("OGR_TIMEOUT must be positive")
	}
	if c.OGR.SpawnRate < 0 {
		return fmt.Errorf("OGR_SPAWN_RATE must not be negative")
	}
	if c.OGR.SpawnRate > 0 && c.OGR.SpawnBurst < 1 {
		return fmt.Errorf("OGR_SPAWN_BURST must be at least 1 when OGR_SPAWN_RATE is set")
	}
	if c.OGR.GeometryColumn == "" {
		return fmt.Errorf("OGR_GEOMETRY_COLUMN is required")
	}
	return nil
}

var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

func (c *Config) validateDatastore() error {
	if c.Datastore.Host == "" {
		return fmt.Errorf("DATASTORE_HOST is required")
	}
	if c.Datastore.Port < 1 || c.Datastore.Port > 65535 {
		return fmt.Errorf("DATASTORE_PORT must be between 1 and 65535")
	}
	if c.Datastore.DBName == "" {
		return fmt.Errorf("DATASTORE_DBNAME is required")
	}
	if c.Datastore.SSLMode != "" && !validSSLModes[c.Datastore.SSLMode] {
		return fmt.Errorf("DATASTORE_SSLMODE %q is not a libpq sslmode", c.Datastore.SSLMode)
	}
	if c.Datastore.MaxConns < 1 {
		return fmt.Errorf("DATASTORE_MAX_CONNS must be at least 1")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreMemory:
		return nil
	case StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required when STORE_BACKEND=badger")
		}
		return nil
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: badger, memory")
	}
}

func (c *Config) validateObjectStore() error {
	if !c.ObjectStore.Enabled {
		return nil
	}
	if c.ObjectStore.Endpoint == "" {
		return fmt.Errorf("OBJECTSTORE_ENDPOINT is required when OBJECTSTORE_ENABLED=true")
	}
	// minio-go takes host:port, not a URL.
	if strings.Contains(c.ObjectStore.Endpoint, "://") {
		u, err := url.Parse(c.ObjectStore.Endpoint)
		if err != nil {
			return fmt.Errorf("OBJECTSTORE_ENDPOINT failed to parse: %w", err)
		}
		return fmt.Errorf("OBJECTSTORE_ENDPOINT must be host:port without a scheme, use %q", u.Host)
	}
	if c.ObjectStore.Bucket == "" {
		return fmt.Errorf("OBJECTSTORE_BUCKET is required when OBJECTSTORE_ENABLED=true")
	}
	if c.ObjectStore.AccessKey == "" || c.ObjectStore.SecretKey == "" {
		return fmt.Errorf("OBJECTSTORE_ACCESS_KEY and OBJECTSTORE_SECRET_KEY are required when OBJECTSTORE_ENABLED=true")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1")
	}
	if c.Dispatch.MaxRetries < 0 {
		return fmt.Errorf("DISPATCH_MAX_RETRIES must not be negative")
	}
	switch c.Dispatch.Mode {
	case DispatchPool:
		if c.Dispatch.MaxQueue < 1 {
			return fmt.Errorf("DISPATCH_MAX_QUEUE must be at least 1")
		}
		return nil
	case DispatchNATS:
		return c.validateNATS()
	default:
		return fmt.Errorf("DISPATCH_MODE must be one of: pool, nats")
	}
}

func (c *Config) validateNATS() error {
	if c.Dispatch.Topic == "" {
		return fmt.Errorf("DISPATCH_TOPIC is required when DISPATCH_MODE=nats")
	}
	if c.Dispatch.PoisonTopic == c.Dispatch.Topic {
		return fmt.Errorf("DISPATCH_POISON_TOPIC must differ from DISPATCH_TOPIC")
	}
	if c.NATS.Stream == "" {
		return fmt.Errorf("NATS_STREAM is required when DISPATCH_MODE=nats")
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.StoreDir == "" {
			return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
		}
		if c.NATS.Port < 1 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
	} else if c.NATS.URL == "" {
		return fmt.Errorf("NATS_URL is required when NATS_EMBEDDED=false")
	}
	if c.NATS.Subscribers < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	if c.NATS.AckWait < c.OGR.Timeout {
		return fmt.Errorf("NATS_ACK_WAIT (%v) must not be shorter than OGR_TIMEOUT (%v)", c.NATS.AckWait, c.OGR.Timeout)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// placeholderPatterns mark secrets copied from example files.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGE_ME",
	"CHANGEME",
	"YOUR_",
	"EXAMPLE",
	"<",
}

func containsPlaceholder(s string) bool {
	upper := strings.ToUpper(s)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
