// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/geometry"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// stepFunc is the body of one step. The returned outputs are merged into
// the execution when the step completes. Errors that are not a
// *models.Error are reported as STEP_FAILED for the step. Bodies must be
// safe to run again after a partial or complete earlier run: conversions
// only write tables owned by the execution, and merges into shared tables
// are recorded so a redelivery does not apply them twice.
type stepFunc func(ctx context.Context, exec *models.Execution) (map[string]string, error)

func (o *Orchestrator) stepTable() map[string]stepFunc {
	return map[string]stepFunc{
		models.StepStartImport:           o.startImport,
		models.StepImportResource:        o.importResource,
		models.StepPublishResource:       o.publishResource,
		models.StepCreateGeoNodeResource: o.createResource,
		models.StepStartCopy:             o.startCopy,
		models.StepCopyDynamicModel:      o.copyDynamicModel,
		models.StepCopyGeoNodeDataTable:  o.copyDataTable,
		models.StepCopyGeoNodeResource:   o.createResource,
	}
}

func skipped(exec *models.Execution) bool {
	return exec.Output(models.OutputSkipped) == "true"
}

// startImport settles the target layer: the existing resource for append
// and upsert, an existing resource when skip_existing_layers finds one, or
// a freshly reserved layer name.
func (o *Orchestrator) startImport(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	files := fileset.FromMap(exec.Files)
	out := map[string]string{
		models.OutputOriginalName: fileset.Stem(files.Base()),
	}

	switch exec.Action {
	case models.ActionAppend, models.ActionUpsert:
		res, err := o.catalog.GetResource(ctx, exec.Params.ResourcePK)
		if err != nil {
			return nil, err
		}
		out[models.OutputAlternate] = res.Alternate
		out[models.OutputResourceID] = res.ID
		out[models.OutputStagingTable] = stagingTable(res.Alternate, exec.ID)

	default:
		if exec.Params.SkipExistingLayers {
			res, err := o.catalog.GetResourceByAlternate(ctx, ogr.LaunderLayerName(out[models.OutputOriginalName]))
			switch {
			case err == nil:
				logging.Ctx(ctx).Info().Str("alternate", res.Alternate).Msg("Layer exists, skipping import")
				out[models.OutputAlternate] = res.Alternate
				out[models.OutputResourceID] = res.ID
				out[models.OutputSkipped] = "true"
				return out, nil
			case !errors.Is(err, models.ErrResourceNotFound):
				return nil, err
			}
		}

		alt, err := o.catalog.ReserveAlternate(ctx, out[models.OutputOriginalName], exec.ID, exec.Params.OverwriteExistingLayer)
		if err != nil {
			return nil, err
		}
		out[models.OutputAlternate] = alt
	}

	if exec.Params.StoreSpatialFiles && o.stager.Enabled() {
		staged, err := o.stager.Stage(ctx, exec.ID, files)
		if err != nil {
			return nil, err
		}
		out[models.OutputStagedLocation] = staged[fileset.RoleBase]
	}
	return out, nil
}

// stagingTable names the table an append or upsert loads into before
// merging.
func stagingTable(alternate, execID string) string {
	suffix := "_stage_" + strings.ReplaceAll(execID, "-", "")
	if len(suffix) > 15 {
		suffix = suffix[:15]
	}
	if len(alternate)+len(suffix) > ogr.MaxLayerName {
		alternate = alternate[:ogr.MaxLayerName-len(suffix)]
	}
	return ogr.LaunderLayerName(alternate + suffix)
}

// importResource runs the conversion. Appends and upserts convert into
// their staging table and then merge it into the target, replacing rows
// matched by the upsert key.
func (o *Orchestrator) importResource(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	if skipped(exec) {
		return nil, nil
	}

	merging := exec.Action == models.ActionAppend || exec.Action == models.ActionUpsert
	if merging {
		done, err := o.datastore.Merged(ctx, exec.ID)
		if err != nil {
			return nil, err
		}
		if done {
			logging.Ctx(ctx).Info().Msg("Staging table already merged, conversion not repeated")
			return nil, nil
		}
	}

	h, ok := o.registry.Get(exec.HandlerID)
	if !ok {
		return nil, models.Errorf(models.ErrNoHandler, "handler %s is not registered", exec.HandlerID).
			WithStep(models.StepImportResource)
	}
	cmd, err := h.ImportCommand(ctx, exec)
	if err != nil {
		return nil, err
	}

	res, err := o.runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Debug().Dur("duration", res.Duration).Msg("Conversion finished")

	if !merging {
		return nil, nil
	}

	staging := exec.Output(models.OutputStagingTable)
	n, already, err := o.datastore.MergeFrom(ctx, exec.ID, staging, exec.Output(models.OutputAlternate), exec.Params.UpsertKey)
	if err != nil {
		return nil, err
	}
	if already {
		logging.Ctx(ctx).Info().Str("table", staging).Msg("Staging table already merged")
		return nil, nil
	}
	logging.Ctx(ctx).Info().Int64("rows", n).Str("key", exec.Params.UpsertKey).Msg("Staging table merged")
	return nil, nil
}

// publishResource reads the layer's geometry type, feature count and extent
// from the datastore and marks the layer published.
func (o *Orchestrator) publishResource(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	if skipped(exec) {
		return nil, nil
	}

	alt := exec.Output(models.OutputAlternate)
	info, err := o.datastore.LayerInfo(ctx, alt)
	if err != nil {
		return nil, err
	}
	info.GeometryType = geometry.NormalizeTypeName(info.GeometryType)

	if err := o.catalog.MarkPublished(ctx, alt, exec.ID, info); err != nil {
		return nil, err
	}

	out := map[string]string{
		models.OutputGeometryType: info.GeometryType,
		models.OutputFeatureCount: strconv.FormatInt(info.FeatureCount, 10),
	}
	if len(info.BBox) > 0 {
		out[models.OutputBBox] = formatBBox(info.BBox)
	}
	return out, nil
}

func formatBBox(bbox []float64) string {
	parts := make([]string, len(bbox))
	for i, v := range bbox {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseBBox(s string) []float64 {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	bbox := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		bbox = append(bbox, v)
	}
	return bbox
}

// createResource records the catalog resource for the layer. Creating it
// again for the same layer returns the existing resource.
func (o *Orchestrator) createResource(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	if skipped(exec) {
		return nil, nil
	}

	count, _ := strconv.ParseInt(exec.Output(models.OutputFeatureCount), 10, 64)
	r := models.Resource{
		Alternate:   exec.Output(models.OutputAlternate),
		Title:       exec.Params.Title,
		Owner:       exec.User,
		HandlerID:   exec.HandlerID,
		ExecutionID: exec.ID,
		Layer: models.LayerInfo{
			GeometryType: exec.Output(models.OutputGeometryType),
			FeatureCount: count,
			BBox:         parseBBox(exec.Output(models.OutputBBox)),
		},
	}
	if r.Title == "" {
		r.Title = exec.Output(models.OutputOriginalName)
	}
	if exec.Action == models.ActionCopy {
		r.SourceResource = exec.Params.ResourcePK
	}

	res, err := o.catalog.CreateResource(ctx, r)
	if err != nil {
		return nil, err
	}
	return map[string]string{models.OutputResourceID: res.ID}, nil
}

// startCopy reserves a new layer name derived from the source resource.
func (o *Orchestrator) startCopy(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	src, err := o.catalog.GetResource(ctx, exec.Params.ResourcePK)
	if err != nil {
		return nil, err
	}
	alt, err := o.catalog.ReserveAlternate(ctx, src.Alternate, exec.ID, false)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		models.OutputSourceTable:  src.Alternate,
		models.OutputAlternate:    alt,
		models.OutputOriginalName: src.Title,
	}, nil
}

func (o *Orchestrator) copyDynamicModel(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	src, dst := exec.Output(models.OutputSourceTable), exec.Output(models.OutputAlternate)
	if err := o.datastore.CreateTableLike(ctx, src, dst); err != nil {
		return nil, err
	}
	return nil, nil
}

func (o *Orchestrator) copyDataTable(ctx context.Context, exec *models.Execution) (map[string]string, error) {
	src, dst := exec.Output(models.OutputSourceTable), exec.Output(models.OutputAlternate)
	n, already, err := o.datastore.CopyRows(ctx, src, dst)
	if err != nil {
		return nil, err
	}
	if already {
		logging.Ctx(ctx).Info().Str("table", dst).Msg("Destination already populated, rows not copied again")
		return nil, nil
	}
	logging.Ctx(ctx).Debug().Int64("rows", n).Str("source", src).Str("table", dst).Msg("Rows copied")
	return nil, nil
}
