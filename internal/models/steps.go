// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package models

// Pipeline step names.
const (
	StepStartImport           = "start_import"
	StepImportResource        = "import_resource"
	StepPublishResource       = "publish_resource"
	StepCreateGeoNodeResource = "create_geonode_resource"
	StepStartCopy             = "start_copy"
	StepCopyDynamicModel      = "copy_dynamic_model"
	StepCopyGeoNodeDataTable  = "copy_geonode_data_table"
	StepCopyGeoNodeResource   = "copy_geonode_resource"
)

// ImportSteps returns the sequence run by upload, append and upsert.
func ImportSteps() []string {
	return []string{
		StepStartImport,
		StepImportResource,
		StepPublishResource,
		StepCreateGeoNodeResource,
	}
}

// CopySteps returns the sequence run by copy.
func CopySteps() []string {
	return []string{
		StepStartCopy,
		StepCopyDynamicModel,
		StepCopyGeoNodeDataTable,
		StepPublishResource,
		StepCopyGeoNodeResource,
	}
}

// StepsFor returns the default step sequence for action, or nil for an
// unknown action.
func StepsFor(action Action) []string {
	switch action {
	case ActionUpload, ActionAppend, ActionUpsert:
		return ImportSteps()
	case ActionCopy:
		return CopySteps()
	}
	return nil
}
