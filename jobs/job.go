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


package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/commandcore/core"
)

// Status is the lifecycle state of an ingestion job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stage identifies the current processing step of a running job. Each stage
// maps to a fixed completion percentage, so percentage never moves backward.
type Stage string

const (
	StageFileSaving          Stage = "file_saving"
	StageTextExtraction      Stage = "text_extraction"
	StageChunking            Stage = "chunking"
	StageEmbeddingGeneration Stage = "embedding_generation"
	StageDone                Stage = "done"
)

// stagePercent maps each stage to the percentage reported while it runs.
var stagePercent = map[Stage]int{
	StageFileSaving:          0,
	StageTextExtraction:      10,
	StageChunking:            30,
	StageEmbeddingGeneration: 50,
	StageDone:                100,
}

// Percent returns the completion percentage reported while this stage runs.
func (s Stage) Percent() int {
	return stagePercent[s]
}

// ErrorInfo describes why a job failed, using stable machine-readable codes.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes reported in ErrorInfo.Code.
const (
	CodeInvalidDomain       = "INVALID_DOMAIN"
	CodeInvalidSourceInfo   = "INVALID_SOURCE_INFO"
	CodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	CodeJobNotFound         = "JOB_NOT_FOUND"
	CodeProcessingError     = "PROCESSING_ERROR"
	CodeQueryError          = "QUERY_PROCESSING_ERROR"
)

// Details carries progress metadata that accumulates as a job advances.
type Details struct {
	ChunksCreated     int         `json:"chunks_created"`
	Domain            core.Domain `json:"domain"`
	DocumentTitle     string      `json:"document_title,omitempty"`
	DocumentAuthor    string      `json:"document_author,omitempty"`
	DocumentDate      string      `json:"document_date,omitempty"`
	MetadataExtracted bool        `json:"metadata_extracted"`
}

// Job is a snapshot of one ingestion job's state. Callers always receive
// value copies; the tracker owns the live records.
type Job struct {
	ID         uuid.UUID  `json:"job_id"`
	Status     Status     `json:"status"`
	Stage      Stage      `json:"stage"`
	Percentage int        `json:"percentage"`
	FileName   string     `json:"file_name"`
	Details    Details    `json:"details"`
	Error      *ErrorInfo `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// CompletedAt is set once, when the job reaches a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
