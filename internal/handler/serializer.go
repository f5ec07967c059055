// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package handler

import (
	"strconv"

	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/validation"
)

// Serializer validates raw request parameters and converts them to Params.
type Serializer interface {
	Parse(in Input) (models.Params, error)
}

// UploadSerializer covers upload, append and upsert requests.
type UploadSerializer struct {
	Action                 string `json:"action" validate:"required,geoimport_action"`
	ResourcePK             string `json:"resource_pk" validate:"omitempty,max=64"`
	OverwriteExistingLayer string `json:"overwrite_existing_layer" validate:"omitempty,boolean"`
	SkipExistingLayers     string `json:"skip_existing_layers" validate:"omitempty,boolean"`
	StoreSpatialFiles      string `json:"store_spatial_files" validate:"omitempty,boolean"`
	UpsertKey              string `json:"upsert_key" validate:"omitempty,layer_name"`
	Title                  string `json:"title" validate:"omitempty,max=255"`
}

// Parse implements Serializer.
func (UploadSerializer) Parse(in Input) (models.Params, error) {
	s := UploadSerializer{
		Action:                 string(in.Action),
		ResourcePK:             in.Data["resource_pk"],
		OverwriteExistingLayer: in.Data["overwrite_existing_layer"],
		SkipExistingLayers:     in.Data["skip_existing_layers"],
		StoreSpatialFiles:      in.Data["store_spatial_files"],
		UpsertKey:              in.Data["upsert_key"],
		Title:                  in.Data["title"],
	}
	if verr := validation.ValidateStruct(&s); verr != nil {
		return models.Params{}, verr.AsModelError()
	}

	if in.Action.TargetsExistingResource() && s.ResourcePK == "" {
		return models.Params{}, models.Errorf(models.ErrInvalidParams, "resource_pk is required for %s", in.Action)
	}
	if in.Action == models.ActionUpsert && s.UpsertKey == "" {
		return models.Params{}, models.Errorf(models.ErrInvalidParams, "upsert_key is required for upsert")
	}

	return models.Params{
		ResourcePK:             s.ResourcePK,
		OverwriteExistingLayer: parseBool(s.OverwriteExistingLayer),
		SkipExistingLayers:     parseBool(s.SkipExistingLayers),
		StoreSpatialFiles:      parseBool(s.StoreSpatialFiles),
		UpsertKey:              s.UpsertKey,
		Title:                  s.Title,
	}, nil
}

// CopySerializer covers copy requests, which carry no files.
type CopySerializer struct {
	ResourcePK string `json:"resource_pk" validate:"required,max=64"`
	Title      string `json:"title" validate:"omitempty,max=255"`
}

// Parse implements Serializer.
func (CopySerializer) Parse(in Input) (models.Params, error) {
	s := CopySerializer{
		ResourcePK: in.Data["resource_pk"],
		Title:      in.Data["title"],
	}
	if verr := validation.ValidateStruct(&s); verr != nil {
		return models.Params{}, verr.AsModelError()
	}
	return models.Params{ResourcePK: s.ResourcePK, Title: s.Title}, nil
}

// parseBool accepts the spellings the validator's boolean tag allows.
// Anything else has already been rejected.
func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
