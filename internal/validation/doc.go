// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with the custom tags
// used by request serializers and translates failures into readable
// messages keyed by request field name.
//
// # Custom Tags
//
//   - geoimport_action: value is one of upload, copy, append, upsert
//   - layer_name: value is an unquoted PostgreSQL identifier (max 63 bytes)
//
// # Usage
//
//	type copyRequest struct {
//	    Action     string `json:"action" validate:"required,geoimport_action"`
//	    ResourcePK string `json:"resource_pk" validate:"required"`
//	    UpsertKey  string `json:"upsert_key" validate:"omitempty,layer_name"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr.AsModelError() // models.ErrInvalidParams, category validation
//	}
//
// Field names in messages come from the json (or form) struct tag.
package validation
