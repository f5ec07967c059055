// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

/*
Package authz implements role-based authorization with Casbin.

The embedded model matches a role against (object, action) pairs with role
inheritance. The embedded policy defines three roles:

	viewer  read handlers, resources and own executions
	editor  viewer + upload, append, upsert, cancel
	admin   everything, including copy and read_all

A policy file configured with CASBIN_POLICY_PATH replaces the embedded policy
and is polled for changes.

Enforcer.Authorize implements the pipeline's submission check: the object is
"executions" and the action is the submitted action name.
*/
package authz
