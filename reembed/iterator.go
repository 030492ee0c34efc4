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


package reembed

import (
	"context"

	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/storage"
)

const (
	// DefaultBatchSize is the default number of records to process in each batch
	DefaultBatchSize = 100
)

// DegradedIterator iterates over degraded knowledge records in batches.
type DegradedIterator struct {
	repo      storage.KnowledgeRepository
	batchSize int
}

// NewDegradedIterator creates a new iterator.
// batchSize: number of records per batch (must be > 0)
func NewDegradedIterator(repo storage.KnowledgeRepository, batchSize int) *DegradedIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DegradedIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of degraded records. Iteration stops on the
// first error from fn or when all records are processed. Context cancellation
// is checked between batches.
func (it *DegradedIterator) ForEach(ctx context.Context, fn func([]*core.KnowledgeRecord) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, err := it.repo.ListDegraded(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	for i := 0; i < len(records); i += it.batchSize {
		end := i + it.batchSize
		if end > len(records) {
			end = len(records)
		}

		if err := fn(records[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
