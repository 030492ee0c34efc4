package storage

import (
	"context"

	"github.com/poiesic/commandcore/core"
)

// SimilarityQuery bounds a vector similarity search.
type SimilarityQuery struct {
	// Domain restricts results to records from one domain.
	Domain core.Domain

	// MinSimilarity is the inclusive cosine similarity threshold.
	MinSimilarity float32

	// Limit caps the number of results returned.
	Limit int
}

// KnowledgeRepository provides operations for persisted knowledge records.
// Implementations must be thread-safe and support concurrent access.
type KnowledgeRepository interface {
	// AddKnowledgeRecords stores a batch of records atomically: either all
	// records land or none do. Records with an existing ID are overwritten,
	// so re-ingesting a document is idempotent. Sets InsertedAt if unset.
	AddKnowledgeRecords(ctx context.Context, records ...*core.KnowledgeRecord) error

	// GetKnowledgeRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetKnowledgeRecord(ctx context.Context, id core.ID) (*core.KnowledgeRecord, error)

	// UpdateEmbeddings replaces the embeddings of the given records and
	// clears their degraded flag. Returns ErrNotFound if any record is
	// missing.
	UpdateEmbeddings(ctx context.Context, records ...*core.KnowledgeRecord) error

	// FindSimilar finds records in the query's domain similar to the given
	// vector. Returns records with cosine similarity >= MinSimilarity, up to
	// Limit results, ordered by similarity (highest first).
	FindSimilar(ctx context.Context, vector []float32, query SimilarityQuery) ([]*core.SearchResult, error)

	// ListDegraded returns all records flagged as carrying a fallback
	// embedding, in key order.
	ListDegraded(ctx context.Context) ([]*core.KnowledgeRecord, error)

	// Count returns the total number of stored knowledge records.
	Count(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
