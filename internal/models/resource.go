// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package models

import "time"

// LayerInfo describes an imported table as read back from the datastore.
type LayerInfo struct {
	GeometryType string    `json:"geometry_type"`
	FeatureCount int64     `json:"feature_count"`
	BBox         []float64 `json:"bbox,omitempty"` // minx, miny, maxx, maxy
}

// Resource is a published dataset in the catalog.
type Resource struct {
	ID             string    `json:"id"`
	Alternate      string    `json:"alternate"`
	Title          string    `json:"title"`
	Owner          string    `json:"owner"`
	HandlerID      string    `json:"handler_id"`
	ExecutionID    string    `json:"execution_id"`
	SourceResource string    `json:"source_resource,omitempty"`
	Layer          LayerInfo `json:"layer"`
	Published      bool      `json:"published"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
