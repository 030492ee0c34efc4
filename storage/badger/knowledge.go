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


package badger

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/storage"
)

// KnowledgeRepository implements storage.KnowledgeRepository for BadgerDB.
type KnowledgeRepository struct {
	backend *Backend
}

var _ storage.KnowledgeRepository = (*KnowledgeRepository)(nil)

// NewKnowledgeRepository creates a repository over an open backend.
//
// Returns storage.KnowledgeRepository interface to enforce abstraction.
func NewKnowledgeRepository(backend *Backend) (storage.KnowledgeRepository, error) {
	return &KnowledgeRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database lifetime.
func (r *KnowledgeRepository) Close() error {
	return nil
}

// AddKnowledgeRecords stores a batch of records in a single transaction.
// Records are keyed by their content-based ID, so re-ingesting the same
// document overwrites in place rather than duplicating.
func (r *KnowledgeRepository) AddKnowledgeRecords(ctx context.Context, records ...*core.KnowledgeRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}

			value, err := storage.MarshalKnowledgeRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(makeKnowledgeRecordKey(record.Id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetKnowledgeRecord retrieves a single record by ID.
func (r *KnowledgeRepository) GetKnowledgeRecord(ctx context.Context, id core.ID) (*core.KnowledgeRecord, error) {
	var record *core.KnowledgeRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeKnowledgeRecordKey(id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalKnowledgeRecord(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateEmbeddings replaces the embeddings of existing records and clears
// their degraded flag. All updates happen in one transaction.
func (r *KnowledgeRepository) UpdateEmbeddings(ctx context.Context, records ...*core.KnowledgeRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeKnowledgeRecordKey(record.Id)

			item, err := tx.Get(key)
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			if err != nil {
				return err
			}

			var stored *core.KnowledgeRecord
			err = item.Value(func(val []byte) error {
				stored, err = storage.UnmarshalKnowledgeRecord(val)
				return err
			})
			if err != nil {
				return err
			}

			stored.Embedding = record.Embedding
			stored.EmbeddingDegraded = false

			value, err := storage.MarshalKnowledgeRecord(stored)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds records in the query's domain similar to the given vector.
func (r *KnowledgeRepository) FindSimilar(ctx context.Context, vector []float32, query storage.SimilarityQuery) ([]*core.SearchResult, error) {
	if query.Limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchResult

	err := r.scan(func(record *core.KnowledgeRecord) error {
		if query.Domain != "" && record.Domain != query.Domain {
			return nil
		}
		if len(record.Embedding) == 0 {
			return nil
		}

		similarity := cosineSimilarity(vector, record.Embedding)
		if similarity >= query.MinSimilarity {
			results = append(results, &core.SearchResult{
				Record: record,
				Score:  similarity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	return results, nil
}

// ListDegraded returns all records flagged with a fallback embedding.
func (r *KnowledgeRepository) ListDegraded(ctx context.Context) ([]*core.KnowledgeRecord, error) {
	var degraded []*core.KnowledgeRecord

	err := r.scan(func(record *core.KnowledgeRecord) error {
		if record.EmbeddingDegraded {
			degraded = append(degraded, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return degraded, nil
}

// Count returns the total number of stored knowledge records.
func (r *KnowledgeRepository) Count(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(knowledgeRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// scan iterates every knowledge record in a read-only transaction.
func (r *KnowledgeRepository) scan(visit func(*core.KnowledgeRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(knowledgeRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var record *core.KnowledgeRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalKnowledgeRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := visit(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// A zero vector on either side scores 0, so records stored with the
// zero-vector fallback never match any query.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
