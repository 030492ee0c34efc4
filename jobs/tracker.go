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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/commandcore/core"
)

// Tracker holds the state of all ingestion jobs in memory. All methods are
// safe for concurrent use. Jobs do not survive a process restart.
type Tracker struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*Job
	logger *slog.Logger
}

// NewTracker creates an empty job tracker. A nil logger disables logging.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		jobs:   make(map[uuid.UUID]*Job),
		logger: logger,
	}
}

// Create registers a new job in the file_saving stage and returns its ID.
func (t *Tracker) Create(fileName string, domain core.Domain) uuid.UUID {
	id := uuid.New()
	now := time.Now()

	t.mu.Lock()
	t.jobs[id] = &Job{
		ID:         id,
		Status:     StatusProcessing,
		Stage:      StageFileSaving,
		Percentage: StageFileSaving.Percent(),
		FileName:   fileName,
		Details:    Details{Domain: domain},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	t.mu.Unlock()

	t.logger.Info("job created",
		slog.String("job_id", id.String()),
		slog.String("file_name", fileName),
		slog.String("domain", string(domain)))
	return id
}

// Get returns a snapshot of the job with the given ID.
func (t *Tracker) Get(id uuid.UUID) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return *job, nil
}

// Advance moves a running job to the given stage. Stage percentages only
// increase, so out-of-order calls cannot move progress backward.
func (t *Tracker) Advance(id uuid.UUID, stage Stage) error {
	return t.update(id, func(job *Job) {
		job.Stage = stage
		if p := stage.Percent(); p > job.Percentage {
			job.Percentage = p
		}
	})
}

// UpdateSourceInfo records the resolved document metadata on a running job.
// extracted reports whether any field came from the document itself.
func (t *Tracker) UpdateSourceInfo(id uuid.UUID, info core.SourceInfo, extracted bool) error {
	return t.update(id, func(job *Job) {
		job.Details.DocumentTitle = info.Title
		job.Details.DocumentAuthor = info.Author
		job.Details.DocumentDate = info.PublicationDate
		job.Details.MetadataExtracted = extracted
	})
}

// SetChunksCreated records how many chunks the document produced.
func (t *Tracker) SetChunksCreated(id uuid.UUID, count int) error {
	return t.update(id, func(job *Job) {
		job.Details.ChunksCreated = count
	})
}

// Complete marks a running job as completed at 100 percent.
func (t *Tracker) Complete(id uuid.UUID) error {
	err := t.update(id, func(job *Job) {
		job.Status = StatusCompleted
		job.Stage = StageDone
		job.Percentage = StageDone.Percent()
		now := time.Now()
		job.CompletedAt = &now
	})
	if err == nil {
		t.logger.Info("job completed", slog.String("job_id", id.String()))
	}
	return err
}

// Fail marks a running job as failed with the given error code and message.
// Percentage freezes at its current value.
func (t *Tracker) Fail(id uuid.UUID, code, message string) error {
	err := t.update(id, func(job *Job) {
		job.Status = StatusFailed
		job.Error = &ErrorInfo{Code: code, Message: message}
		now := time.Now()
		job.CompletedAt = &now
	})
	if err == nil {
		t.logger.Warn("job failed",
			slog.String("job_id", id.String()),
			slog.String("code", code),
			slog.String("message", message))
	}
	return err
}

// update applies fn to a live, unfinished job under the write lock.
func (t *Tracker) update(id uuid.UUID, fn func(*Job)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if job.Finished() {
		return ErrJobFinished
	}

	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

// Len returns the number of tracked jobs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}
