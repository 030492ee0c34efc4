package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/ai/mock"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/storage"
	storagebadger "github.com/poiesic/commandcore/storage/badger"
)

const testDims = 3

// fallback wraps a mock embedder in the zero-vector failure policy used in
// production.
func fallback(embedder *mock.MockEmbedder) *ai.FallbackEmbedder {
	return ai.NewFallbackEmbedder(embedder, testDims, nil)
}

func setupStore(t *testing.T, records ...*core.KnowledgeRecord) storage.KnowledgeRepository {
	t.Helper()
	repo, backend, err := storagebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	if len(records) > 0 {
		require.NoError(t, repo.AddKnowledgeRecords(context.Background(), records...))
	}
	return repo
}

func record(title, author, text string, position int, embedding []float32) *core.KnowledgeRecord {
	return &core.KnowledgeRecord{
		Id:        core.RecordID(core.DomainAI, title, position, text),
		ChunkText: text,
		Embedding: embedding,
		SourceInfo: core.SourceInfo{
			Title:           title,
			Author:          author,
			PublicationDate: "2025-02-01",
		},
		Domain:   core.DomainAI,
		Position: position,
	}
}

func TestAnswerShortCircuitsWithoutHits(t *testing.T) {
	repo := setupStore(t)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator := mock.NewMockGenerator()

	p, err := NewPipeline(repo, fallback(embedder), generator)
	require.NoError(t, err)

	result, err := p.Answer(context.Background(), "what is paxos?", core.DomainAI)
	require.NoError(t, err)
	assert.Equal(t, InsufficientInformation, result.Response)
	assert.Empty(t, result.Sources)
	assert.NotNil(t, result.Sources)
	assert.Equal(t, "what is paxos?", result.Query)
	assert.Zero(t, generator.CallCount(), "generator must not run without context")
}

func TestAnswerGeneratesWithCitations(t *testing.T) {
	repo := setupStore(t,
		record("Consensus Algorithms", "A. Lam", "paxos elects a leader", 0, []float32{1, 0, 0}),
		record("Consensus Algorithms", "A. Lam", "raft simplifies paxos", 1, []float32{0.95, 0.05, 0}),
		record("Unrelated Doc", "B. Cho", "kubernetes scheduling", 0, []float32{0, 0, 1}),
	)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator := mock.NewMockGenerator()
	generator.Response = "Paxos elects a leader [1]."

	p, err := NewPipeline(repo, fallback(embedder), generator)
	require.NoError(t, err)

	result, err := p.Answer(context.Background(), "how does paxos work?", core.DomainAI)
	require.NoError(t, err)
	assert.Equal(t, "Paxos elects a leader [1].", result.Response)

	// Two chunks from the same document collapse into one source.
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Consensus Algorithms", result.Sources[0].Title)
	assert.Equal(t, "A. Lam", result.Sources[0].Author)

	system, user := generator.LastPrompts()
	assert.Contains(t, system, "You are CommandCore")
	assert.Contains(t, user, "Question: how does paxos work?")
	assert.Contains(t, user, "paxos elects a leader")
	assert.Contains(t, user, "[1] Consensus Algorithms by A. Lam, 2025-02-01")
	assert.Contains(t, user, "[2] Consensus Algorithms by A. Lam, 2025-02-01")
	assert.NotContains(t, user, "kubernetes scheduling")
}

func TestAnswerContextJoinsChunksWithBlankLine(t *testing.T) {
	repo := setupStore(t,
		record("Doc", "X", "first chunk text", 0, []float32{1, 0, 0}),
		record("Doc", "X", "second chunk text", 1, []float32{0.9, 0.1, 0}),
	)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator := mock.NewMockGenerator()

	p, err := NewPipeline(repo, fallback(embedder), generator)
	require.NoError(t, err)

	_, err = p.Answer(context.Background(), "anything relevant?", core.DomainAI)
	require.NoError(t, err)

	_, user := generator.LastPrompts()
	assert.Contains(t, user, "first chunk text\n\nsecond chunk text")
}

func TestAnswerEmptyDomainSearchesAllDomains(t *testing.T) {
	cloudRecord := record("Scaling Notes", "C. Ito", "autoscaling group behavior", 0, []float32{1, 0, 0})
	cloudRecord.Domain = core.DomainCloud
	repo := setupStore(t,
		record("Consensus Algorithms", "A. Lam", "paxos elects a leader", 0, []float32{1, 0, 0}),
		cloudRecord,
	)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator := mock.NewMockGenerator()
	generator.Response = "Both documents agree [1][2]."

	p, err := NewPipeline(repo, fallback(embedder), generator)
	require.NoError(t, err)

	result, err := p.Answer(context.Background(), "anything?", core.Domain(""))
	require.NoError(t, err)
	assert.Equal(t, "Both documents agree [1][2].", result.Response)
	require.Len(t, result.Sources, 2)

	_, user := generator.LastPrompts()
	assert.Contains(t, user, "paxos elects a leader")
	assert.Contains(t, user, "autoscaling group behavior")
}

func TestAnswerValidatesInput(t *testing.T) {
	repo := setupStore(t)
	p, err := NewPipeline(repo, fallback(mock.NewMockEmbedder()), mock.NewMockGenerator())
	require.NoError(t, err)

	_, err = p.Answer(context.Background(), "   ", core.DomainAI)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = p.Answer(context.Background(), "valid question", core.Domain("finance"))
	assert.ErrorIs(t, err, core.ErrInvalidDomain)
}

func TestAnswerRespectsMaxResults(t *testing.T) {
	records := make([]*core.KnowledgeRecord, 8)
	for i := range records {
		records[i] = record("Doc", "X", strings.Repeat("chunk ", i+1), i, []float32{1, 0, 0})
	}
	repo := setupStore(t, records...)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	generator := mock.NewMockGenerator()

	p, err := NewPipeline(repo, fallback(embedder), generator, WithMaxResults(3))
	require.NoError(t, err)

	_, err = p.Answer(context.Background(), "how many chunks?", core.DomainAI)
	require.NoError(t, err)

	_, user := generator.LastPrompts()
	assert.Contains(t, user, "[3]")
	assert.NotContains(t, user, "[4]")
}

func TestAnswerDegradedQueryEmbedding(t *testing.T) {
	repo := setupStore(t,
		record("Doc", "X", "stored chunk", 0, []float32{1, 0, 0}),
	)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	generator := mock.NewMockGenerator()

	p, err := NewPipeline(repo, fallback(embedder), generator)
	require.NoError(t, err)

	// The zero-vector fallback matches nothing, so the caller sees the
	// insufficient-information response instead of an error.
	result, err := p.Answer(context.Background(), "anything?", core.DomainAI)
	require.NoError(t, err)
	assert.Equal(t, InsufficientInformation, result.Response)
	assert.Empty(t, result.Sources)
	assert.Zero(t, generator.CallCount())
}

func TestNewPipelineValidation(t *testing.T) {
	repo := setupStore(t)
	embedder := fallback(mock.NewMockEmbedder())
	generator := mock.NewMockGenerator()

	_, err := NewPipeline(nil, embedder, generator)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, generator)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewPipeline(repo, embedder, nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestFormatCitationUnknowns(t *testing.T) {
	line := formatCitation(2, core.SourceInfo{})
	assert.Equal(t, "[2] Unknown by Unknown, Unknown", line)
}
