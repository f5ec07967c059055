// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package config loads and validates Geoimport configuration.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file, then environment variables. Later layers win.

# Config File

The file is taken from CONFIG_PATH, or the first of config.yaml, config.yml,
/etc/geoimport/config.yaml and /etc/geoimport/config.yml that exists:

	server:
	  port: 8080
	upload:
	  max_parallel_uploads_per_user: 5
	  per_user_limits:
	    batch-loader: 20
	dispatch:
	  mode: nats

# Environment Variables

Only mapped variables are read. The most common ones:

  - HTTP_PORT, ENVIRONMENT
  - AUTH_MODE (none, jwt), JWT_SECRET, DEFAULT_ROLE, CORS_ORIGINS
  - MAX_PARALLEL_UPLOADS_PER_USER, UPLOAD_PER_USER_LIMITS ("alice=2,bob=10"),
    UPLOAD_LIMIT_SCOPE (user, system), UPLOAD_STAGING_DIR
  - OGR2OGR_PATH, OGR_TIMEOUT, OGR_GLOBAL_OPTIONS
  - DATASTORE_HOST, DATASTORE_PORT, DATASTORE_USER, DATASTORE_PASSWORD, DATASTORE_DBNAME
  - STORE_BACKEND (badger, memory), STORE_PATH, CATALOG_PATH
  - OBJECTSTORE_ENABLED, OBJECTSTORE_ENDPOINT, OBJECTSTORE_BUCKET
  - DISPATCH_MODE (pool, nats), DISPATCH_WORKERS, NATS_URL, NATS_EMBEDDED
  - LOG_LEVEL, LOG_FORMAT

Comma-separated values are split for list settings.

# Conversions

Config exposes converters (RunnerConfig, Builder, PoolConfig, NATSOptions and
others) so that packages below config never import it.
*/
package config
