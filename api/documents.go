// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/ingestion"
	"github.com/poiesic/commandcore/jobs"
)

// documentsHandler serves document upload and job status endpoints.
type documentsHandler struct {
	pipeline  *ingestion.Pipeline
	tracker   *jobs.Tracker
	uploadDir string
	logger    *slog.Logger
}

// upload accepts a multipart document upload and starts an async ingestion
// job. The response carries the job ID; clients poll the status endpoint to
// follow progress.
func (dh *documentsHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(core.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeProcessingError,
			"invalid multipart form")
		return
	}

	domain := core.Domain(strings.TrimSpace(r.FormValue("domain")))
	if err := core.ValidateDomain(domain); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeInvalidDomain, err.Error())
		return
	}

	var sourceInfo core.SourceInfo
	rawInfo := r.FormValue("source_info")
	if rawInfo == "" {
		writeError(w, http.StatusBadRequest, jobs.CodeInvalidSourceInfo,
			"source_info field is required")
		return
	}
	if err := json.Unmarshal([]byte(rawInfo), &sourceInfo); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeInvalidSourceInfo,
			"source_info must be valid JSON")
		return
	}
	if err := core.ValidateSourceInfo(&sourceInfo); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeInvalidSourceInfo, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeProcessingError,
			"file field is required")
		return
	}
	defer file.Close()

	if err := core.ValidateFileName(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeUnsupportedFileType, err.Error())
		return
	}
	if err := core.ValidateFileSize(header.Size); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, jobs.CodeProcessingError, err.Error())
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, core.MaxUploadBytes+1))
	if err != nil {
		dh.logger.Error("reading upload failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, jobs.CodeProcessingError,
			"failed to read uploaded file")
		return
	}
	if err := core.ValidateFileSize(int64(len(content))); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, jobs.CodeProcessingError, err.Error())
		return
	}

	jobID := dh.tracker.Create(header.Filename, domain)

	if dh.uploadDir != "" {
		if err := dh.saveUpload(jobID, header.Filename, content); err != nil {
			dh.logger.Error("saving upload failed", "job_id", jobID, "error", err)
			_ = dh.tracker.Fail(jobID, jobs.CodeProcessingError, "failed to save uploaded file")
			writeError(w, http.StatusInternalServerError, jobs.CodeProcessingError,
				"failed to save uploaded file")
			return
		}
	}

	if err := dh.pipeline.Enqueue(jobID, header.Filename, content, domain, sourceInfo); err != nil {
		dh.logger.Error("enqueue failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, jobs.CodeProcessingError,
			"failed to start processing")
		return
	}

	dh.logger.Info("document accepted",
		"job_id", jobID,
		"file", header.Filename,
		"domain", domain,
		"size", len(content),
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": jobs.StatusProcessing,
	})
}

// saveUpload keeps a copy of the raw upload under uploadDir/<job_id>/.
// The path uses only the base name so a crafted file name cannot escape
// the job directory.
func (dh *documentsHandler) saveUpload(jobID uuid.UUID, fileName string, content []byte) error {
	dir := filepath.Join(dh.uploadDir, jobID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filepath.Base(fileName)), content, 0644)
}

// status returns a snapshot of one ingestion job.
func (dh *documentsHandler) status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("job_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeJobNotFound,
			"job ID must be a valid UUID")
		return
	}

	job, err := dh.tracker.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, jobs.CodeJobNotFound,
			"no job found with ID "+id.String())
		return
	}

	writeJSON(w, http.StatusOK, job)
}
