// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/geoimport/internal/fileset"
	"github.com/tomtom215/geoimport/internal/logging"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/pipeline"
)

// roleField matches the multipart field names that carry files.
var roleField = regexp.MustCompile(`^[a-z0-9]{1,16}_file$`)

// actionField selects upload, append or upsert. It defaults to upload.
const actionField = "action"

// submissionResponse is returned for every accepted submission.
type submissionResponse struct {
	ExecutionID string        `json:"execution_id"`
	Status      models.Status `json:"status"`
	HandlerID   string        `json:"handler_id"`
	Steps       []string      `json:"steps"`
}

func newSubmissionResponse(exec *models.Execution) submissionResponse {
	return submissionResponse{
		ExecutionID: exec.ID,
		Status:      exec.Status,
		HandlerID:   exec.HandlerID,
		Steps:       exec.Steps,
	}
}

// Upload handles POST /api/v1/uploads. The multipart form carries one file
// per role (base_file, dbf_file, ...) and the request parameters as plain
// fields. Files are staged under a fresh directory, which is removed again
// when the submission is rejected.
//
// @Summary Upload a dataset
// @Description Stages the uploaded files and starts an upload, append or upsert execution. A shapefile needs base_file (.shp), dbf_file, shx_file and prj_file.
// @Tags Executions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param base_file formData file true "Main file of the dataset (.shp, .geojson, .json)"
// @Param dbf_file formData file false "Shapefile attribute table"
// @Param shx_file formData file false "Shapefile index"
// @Param prj_file formData file false "Shapefile projection"
// @Param cpg_file formData file false "Shapefile encoding"
// @Param action formData string false "upload, append or upsert" default(upload) Enums(upload, append, upsert)
// @Param resource_pk formData string false "Target resource of append and upsert"
// @Param upsert_key formData string false "Column matching rows on upsert"
// @Param overwrite_existing_layer formData bool false "Replace a published layer of the same name"
// @Param skip_existing_layers formData bool false "Skip the import when the layer already exists"
// @Param store_spatial_files formData bool false "Keep the source files in object storage"
// @Success 202 {object} APIResponse{data=submissionResponse} "Execution accepted"
// @Failure 400 {object} APIResponse "Invalid file set or parameters"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Action not permitted for the caller's role"
// @Failure 413 {object} APIResponse "Upload too large"
// @Failure 429 {object} APIResponse "Parallelism limit or rate limit reached"
// @Router /uploads [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	claims := caller(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxUploadSize)
	if err := r.ParseMultipartForm(h.upload.MaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.PayloadTooLarge(fmt.Sprintf("upload exceeds %d bytes", h.upload.MaxUploadSize))
			return
		}
		rw.BadRequest("invalid multipart form: " + err.Error())
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to remove multipart temp files")
		}
	}()

	action := r.FormValue(actionField)
	if action == "" {
		action = string(models.ActionUpload)
	}
	if action == string(models.ActionCopy) {
		rw.ModelError(models.Errorf(models.ErrUnsupportedAction, "copy takes no files, use /api/v1/executions"))
		return
	}

	dir := filepath.Join(h.upload.StagingDir, uuid.New().String())
	files, err := stageFiles(dir, r.MultipartForm.File)
	if err != nil {
		removeStaging(r, dir)
		h.auditSubmission(r, claims, action, nil, err)
		rw.ModelError(err)
		return
	}

	exec, err := h.pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		User:   claims.Username,
		Role:   claims.Role,
		Action: action,
		Files:  files,
		Data:   formData(r.MultipartForm.Value),
	})
	h.auditSubmission(r, claims, action, exec, err)
	if err != nil {
		removeStaging(r, dir)
		rw.ModelError(err)
		return
	}
	rw.Accepted(newSubmissionResponse(exec))
}

// formData flattens the plain form fields to their first value.
func formData(values map[string][]string) map[string]string {
	data := make(map[string]string, len(values))
	for key, v := range values {
		if key == actionField || len(v) == 0 {
			continue
		}
		data[key] = v[0]
	}
	return data
}

// stageFiles writes every uploaded file into dir and returns the resulting
// FileSet. Only the base name of the client-supplied filename is used.
func stageFiles(dir string, parts map[string][]*multipart.FileHeader) (fileset.FileSet, error) {
	if len(parts) == 0 {
		return nil, models.Errorf(models.ErrInvalidFileSet, "no files uploaded")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	files := make(fileset.FileSet, len(parts))
	names := make(map[string]string, len(parts))
	for field, headers := range parts {
		if !roleField.MatchString(field) {
			return nil, models.Errorf(models.ErrInvalidFileSet, "unexpected file field %q", field)
		}
		if len(headers) != 1 {
			return nil, models.Errorf(models.ErrInvalidFileSet, "field %s must carry exactly one file", field)
		}

		name := filepath.Base(strings.ReplaceAll(headers[0].Filename, `\`, "/"))
		if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
			return nil, models.Errorf(models.ErrInvalidFileSet, "invalid file name %q for %s", headers[0].Filename, field)
		}
		if other, dup := names[name]; dup {
			return nil, models.Errorf(models.ErrInvalidFileSet, "%s and %s share the file name %s", other, field, name)
		}
		names[name] = field

		path := filepath.Join(dir, name)
		if err := saveFile(headers[0], path); err != nil {
			return nil, err
		}
		files[fileset.Role(field)] = path
	}
	return files, nil
}

func saveFile(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write staged file: %w", err)
	}
	return dst.Close()
}

func removeStaging(r *http.Request, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("dir", dir).Msg("Failed to remove staging directory")
	}
}
