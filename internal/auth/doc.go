// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package auth authenticates API callers.

Two modes are supported:

  - jwt: HS256 bearer tokens carrying a username and a role, read from the
    Authorization header or the "token" cookie
  - none: every request runs as the configured anonymous user with the
    default role (development only)

The authenticated *Claims are stored in the request context; handlers read
them with ClaimsFromContext. Authorization of the role is done by package
authz.

Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(jwtManager, &cfg.Security)
	r.Use(mw.Authenticate)
*/
package auth
