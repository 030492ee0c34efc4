package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/ai/mock"
	"github.com/poiesic/commandcore/chunk"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/extract"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/storage"
	storagebadger "github.com/poiesic/commandcore/storage/badger"
)

const testDims = 8

// wordTokenizer treats each word as one token, keeping chunk geometry
// predictable without the tiktoken vocabulary.
type wordTokenizer struct {
	words []string
}

func (w *wordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	base := len(w.words)
	w.words = append(w.words, fields...)
	for i := range fields {
		tokens[i] = base + i
	}
	return tokens
}

func (w *wordTokenizer) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = w.words[tok]
	}
	return strings.Join(parts, " ")
}

type fixture struct {
	pipeline *Pipeline
	tracker  *jobs.Tracker
	repo     storage.KnowledgeRepository
	embedder *mock.MockEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	chunker, err := chunk.New(&wordTokenizer{}, 20, 5)
	require.NoError(t, err)

	mockEmbedder := mock.NewMockEmbedder()
	mockEmbedder.Dimensions = testDims

	tracker := jobs.NewTracker(nil)

	pipeline, err := NewPipeline(
		repo,
		extract.NewRegistry(),
		chunker,
		ai.NewFallbackEmbedder(mockEmbedder, testDims, nil),
		tracker,
		WithPoolSize(2),
		WithCallTimeout(5*time.Second),
	)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &fixture{
		pipeline: pipeline,
		tracker:  tracker,
		repo:     repo,
		embedder: mockEmbedder,
	}
}

// waitFinished polls until the job reaches a terminal state.
func waitFinished(t *testing.T, tracker *jobs.Tracker, id uuid.UUID) jobs.Job {
	t.Helper()
	var job jobs.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = tracker.Get(id)
		require.NoError(t, err)
		return job.Finished()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

// docWords builds a document with n distinct words.
func docWords(n int) []byte {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return []byte(strings.Join(parts, " "))
}

func testSourceInfo() core.SourceInfo {
	return core.SourceInfo{
		Title:           "Scheduler Deep Dive",
		Author:          "P. Novak",
		PublicationDate: "2025-04-22",
	}
}

func TestPipelineIngestsDocument(t *testing.T) {
	f := newFixture(t)

	// 50 words, window 20, step 15 -> 3 chunks (trailing 5 dropped).
	id := f.tracker.Create("scheduler.txt", core.DomainVirtOS)
	require.NoError(t, f.pipeline.Enqueue(id, "scheduler.txt", docWords(50), core.DomainVirtOS, testSourceInfo()))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Percentage)
	assert.Equal(t, 3, job.Details.ChunksCreated)
	assert.Equal(t, "Scheduler Deep Dive", job.Details.DocumentTitle)

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := f.repo.ListDegraded(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPipelineDegradesOnEmbeddingFailure(t *testing.T) {
	f := newFixture(t)

	// Fail embedding for the second chunk only.
	calls := 0
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("embedding service down")
		}
		vec := make([]float32, testDims)
		vec[0] = 1
		return vec, nil
	}

	id := f.tracker.Create("doc.txt", core.DomainAI)
	require.NoError(t, f.pipeline.Enqueue(id, "doc.txt", docWords(50), core.DomainAI, testSourceInfo()))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 3, job.Details.ChunksCreated)

	degraded, err := f.repo.ListDegraded(context.Background())
	require.NoError(t, err)
	require.Len(t, degraded, 1)
	// Second chunk starts at token 15 (window 20, overlap 5).
	assert.Equal(t, 15, degraded[0].Position)
	assert.Equal(t, make([]float32, testDims), degraded[0].Embedding)
}

func TestPipelineFailsOnExtractionError(t *testing.T) {
	f := newFixture(t)

	id := f.tracker.Create("broken.docx", core.DomainCloud)
	require.NoError(t, f.pipeline.Enqueue(id, "broken.docx", []byte("not a zip archive"), core.DomainCloud, testSourceInfo()))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, jobs.CodeProcessingError, job.Error.Code)
	assert.Contains(t, job.Error.Message, "text extraction failed")
}

func TestPipelineCompletesEmptyDocumentWithZeroChunks(t *testing.T) {
	f := newFixture(t)

	id := f.tracker.Create("empty.txt", core.DomainAI)
	require.NoError(t, f.pipeline.Enqueue(id, "empty.txt", []byte("   \n  "), core.DomainAI, testSourceInfo()))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Percentage)
	assert.Equal(t, 0, job.Details.ChunksCreated)
	assert.Nil(t, job.Error)

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPipelineSurvivesPanic(t *testing.T) {
	f := newFixture(t)

	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		panic("embedder exploded")
	}

	id := f.tracker.Create("doc.txt", core.DomainAI)
	require.NoError(t, f.pipeline.Enqueue(id, "doc.txt", docWords(50), core.DomainAI, testSourceInfo()))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, jobs.CodeProcessingError, job.Error.Code)

	// The pool stays usable for subsequent documents.
	f.embedder.EmbedTextFunc = nil
	next := f.tracker.Create("doc2.txt", core.DomainAI)
	require.NoError(t, f.pipeline.Enqueue(next, "doc2.txt", docWords(50), core.DomainAI, testSourceInfo()))
	job = waitFinished(t, f.tracker, next)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
}

func TestPipelineMergesExtractedMetadata(t *testing.T) {
	f := newFixture(t)

	placeholder := core.SourceInfo{
		Title:           "Untitled Document",
		Author:          "Unknown Author",
		PublicationDate: "2023-01-01",
	}

	id := f.tracker.Create("ai_safety_notes.txt", core.DomainAI)
	require.NoError(t, f.pipeline.Enqueue(id, "ai_safety_notes.txt", docWords(50), core.DomainAI, placeholder))

	job := waitFinished(t, f.tracker, id)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	// Plain text carries no author or date, but the title placeholder is
	// replaced from the file name.
	assert.Equal(t, "ai safety notes", job.Details.DocumentTitle)
	assert.Equal(t, "Unknown Author", job.Details.DocumentAuthor)
	assert.True(t, job.Details.MetadataExtracted)
}

func TestNewPipelineValidation(t *testing.T) {
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	chunker, err := chunk.New(&wordTokenizer{}, 20, 5)
	require.NoError(t, err)
	embedder := ai.NewFallbackEmbedder(mock.NewMockEmbedder(), testDims, nil)
	tracker := jobs.NewTracker(nil)
	registry := extract.NewRegistry()

	_, err = NewPipeline(nil, registry, chunker, embedder, tracker)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, chunker, embedder, tracker)
	assert.ErrorIs(t, err, ErrRegistryRequired)

	_, err = NewPipeline(repo, registry, nil, embedder, tracker)
	assert.ErrorIs(t, err, ErrChunkerRequired)

	_, err = NewPipeline(repo, registry, chunker, nil, tracker)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(repo, registry, chunker, embedder, nil)
	assert.ErrorIs(t, err, ErrTrackerRequired)
}
