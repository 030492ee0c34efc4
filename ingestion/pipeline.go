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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/chunk"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/extract"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/storage"
)

const defaultCallTimeout = 60 * time.Second

// Pipeline orchestrates asynchronous document ingestion: extraction,
// metadata merging, chunking, embedding, and persistence. Each document
// runs as one task on a worker pool, reporting progress through the job
// tracker.
type Pipeline struct {
	repository  storage.KnowledgeRepository
	registry    *extract.Registry
	chunker     *chunk.Chunker
	embedder    *ai.FallbackEmbedder
	tracker     *jobs.Tracker
	pool        *ants.Pool
	callTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent document processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithCallTimeout bounds each embedding service call. Default is 60s.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d <= 0 {
			return fmt.Errorf("call timeout must be positive, got %v", d)
		}
		p.callTimeout = d
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.KnowledgeRepository,
	registry *extract.Registry,
	chunker *chunk.Chunker,
	embedder *ai.FallbackEmbedder,
	tracker *jobs.Tracker,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:  repository,
		registry:    registry,
		chunker:     chunker,
		embedder:    embedder,
		tracker:     tracker,
		pool:        pool,
		callTimeout: defaultCallTimeout,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Enqueue submits a document for asynchronous processing. The returned error
// covers submission only; processing outcomes are reported through the job
// tracker. content is the raw uploaded file, already validated for type and
// size by the caller.
func (p *Pipeline) Enqueue(jobID uuid.UUID, fileName string, content []byte, domain core.Domain, sourceInfo core.SourceInfo) error {
	return p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("ingestion task panicked",
					slog.String("job_id", jobID.String()),
					slog.Any("panic", r))
				_ = p.tracker.Fail(jobID, jobs.CodeProcessingError, "internal processing error")
			}
		}()

		p.process(jobID, fileName, content, domain, sourceInfo)
	})
}

// process runs the full ingestion flow for one document.
func (p *Pipeline) process(jobID uuid.UUID, fileName string, content []byte, domain core.Domain, sourceInfo core.SourceInfo) {
	start := time.Now()

	// Text extraction
	if err := p.tracker.Advance(jobID, jobs.StageTextExtraction); err != nil {
		p.logger.Warn("cannot advance job", "job_id", jobID, "err", err)
		return
	}

	extraction, err := p.registry.Extract(content, fileName)
	if err != nil {
		p.fail(jobID, jobs.CodeProcessingError, fmt.Sprintf("text extraction failed: %v", err))
		return
	}

	merged := extract.MergeSourceInfo(sourceInfo, extraction.Meta)
	extracted := merged != sourceInfo
	core.NormalizeSourceInfo(&merged)
	if err := p.tracker.UpdateSourceInfo(jobID, merged, extracted); err != nil {
		p.logger.Warn("cannot record source info", "job_id", jobID, "err", err)
	}

	// Chunking
	if err := p.tracker.Advance(jobID, jobs.StageChunking); err != nil {
		p.logger.Warn("cannot advance job", "job_id", jobID, "err", err)
		return
	}

	chunks := p.chunker.Split(extraction.Text)
	if err := p.tracker.SetChunksCreated(jobID, len(chunks)); err != nil {
		p.logger.Warn("cannot record chunk count", "job_id", jobID, "err", err)
	}
	if len(chunks) == 0 {
		// A document below the minimum chunk size stores nothing but still
		// completes, reporting zero chunks.
		if err := p.tracker.Complete(jobID); err != nil {
			p.logger.Warn("cannot complete job", "job_id", jobID, "err", err)
			return
		}
		p.logger.Info("document produced no chunks",
			slog.String("job_id", jobID.String()),
			slog.String("file_name", fileName))
		return
	}

	// Embedding generation. Individual failures degrade the record instead
	// of failing the document.
	if err := p.tracker.Advance(jobID, jobs.StageEmbeddingGeneration); err != nil {
		p.logger.Warn("cannot advance job", "job_id", jobID, "err", err)
		return
	}

	records := make([]*core.KnowledgeRecord, len(chunks))
	degradedCount := 0
	for i, ch := range chunks {
		vector, degraded := p.embedChunk(ch.Text)
		if degraded {
			degradedCount++
		}

		records[i] = &core.KnowledgeRecord{
			Id:                core.RecordID(domain, merged.Title, ch.Position, ch.Text),
			ChunkText:         ch.Text,
			Embedding:         vector,
			SourceInfo:        merged,
			Domain:            domain,
			Position:          ch.Position,
			TokenCount:        ch.TokenCount,
			EmbeddingDegraded: degraded,
		}
	}

	// Persist the whole document atomically.
	ctx, cancel := context.WithTimeout(context.Background(), p.callTimeout)
	err = p.repository.AddKnowledgeRecords(ctx, records...)
	cancel()
	if err != nil {
		p.fail(jobID, jobs.CodeProcessingError, fmt.Sprintf("failed to store records: %v", err))
		return
	}

	if err := p.tracker.Complete(jobID); err != nil {
		p.logger.Warn("cannot complete job", "job_id", jobID, "err", err)
		return
	}

	p.logger.Info("document ingested",
		slog.String("job_id", jobID.String()),
		slog.String("file_name", fileName),
		slog.String("domain", string(domain)),
		slog.Int("chunks", len(chunks)),
		slog.Int("degraded", degradedCount),
		slog.Duration("elapsed", time.Since(start)))
}

// embedChunk embeds one chunk under the per-call timeout.
func (p *Pipeline) embedChunk(text string) ([]float32, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), p.callTimeout)
	defer cancel()
	return p.embedder.EmbedText(ctx, text)
}

func (p *Pipeline) fail(jobID uuid.UUID, code, message string) {
	if err := p.tracker.Fail(jobID, code, message); err != nil {
		p.logger.Warn("cannot fail job", "job_id", jobID, "err", err)
	}
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
