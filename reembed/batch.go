package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/storage"
)

// BatchProcessor embeds batches of degraded records and writes the repaired
// vectors back to storage.
type BatchProcessor struct {
	repo           storage.KnowledgeRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.KnowledgeRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the chunk text of every record in the batch and updates the
// stored embeddings. Vectors are normalized before storage so cosine scoring
// stays well-conditioned.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.KnowledgeRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.ChunkText
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	for i := range records {
		records[i].Embedding = NormalizeVector(embeddings[i])
	}

	if err := bp.repo.UpdateEmbeddings(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
