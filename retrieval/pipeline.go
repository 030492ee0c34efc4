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

package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity threshold below which
	// retrieved chunks are discarded.
	DefaultMinSimilarity = 0.7

	// DefaultMaxResults caps the number of chunks fed to the generator.
	DefaultMaxResults = 5

	// InsufficientInformation is the canned response returned when no chunk
	// clears the similarity threshold. The generator is not called in that
	// case.
	InsufficientInformation = "I couldn't find any relevant information to answer your query."
)

// Source is one cited document in a query result. Sources are deduplicated
// by title, preserving retrieval order.
type Source struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationDate string `json:"publication_date"`
}

// Result is the answer to one query.
type Result struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Sources   []Source  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

// Pipeline answers queries by embedding them, retrieving similar chunks,
// and generating a grounded answer with citations.
type Pipeline struct {
	repository    storage.KnowledgeRepository
	embedder      *ai.FallbackEmbedder
	generator     ai.Generator
	minSimilarity float32
	maxResults    int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMinSimilarity overrides the similarity threshold.
func WithMinSimilarity(min float32) Option {
	return func(p *Pipeline) {
		p.minSimilarity = min
	}
}

// WithMaxResults overrides the retrieval result cap.
func WithMaxResults(max int) Option {
	return func(p *Pipeline) {
		p.maxResults = max
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewPipeline creates a retrieval pipeline. The embedder carries the
// zero-vector failure policy: a failed query embedding degrades to a vector
// that matches nothing rather than erroring out.
func NewPipeline(repository storage.KnowledgeRepository, embedder *ai.FallbackEmbedder, generator ai.Generator, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	p := &Pipeline{
		repository:    repository,
		embedder:      embedder,
		generator:     generator,
		minSimilarity: DefaultMinSimilarity,
		maxResults:    DefaultMaxResults,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Answer processes one query. An empty domain searches every domain; a
// non-empty domain restricts retrieval to it. When no stored chunk clears
// the similarity threshold it returns the InsufficientInformation response
// without calling the generator.
func (p *Pipeline) Answer(ctx context.Context, query string, domain core.Domain) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if domain != "" {
		if err := core.ValidateDomain(domain); err != nil {
			return nil, err
		}
	}

	start := time.Now()

	vector, degraded := p.embedder.EmbedText(ctx, query)
	if degraded {
		// The zero vector scores 0 against every record, so this query
		// falls through to the insufficient-information response.
		p.logger.Warn("query embedding degraded to zero vector",
			slog.String("domain", string(domain)))
	}

	results, err := p.repository.FindSimilar(ctx, vector, storage.SimilarityQuery{
		Domain:        domain,
		MinSimilarity: p.minSimilarity,
		Limit:         p.maxResults,
	})
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		p.logger.Info("no relevant chunks for query",
			slog.String("domain", string(domain)),
			slog.Duration("elapsed", time.Since(start)))
		return &Result{
			Query:     query,
			Response:  InsufficientInformation,
			Sources:   []Source{},
			Timestamp: time.Now().UTC(),
		}, nil
	}

	response, err := p.generator.Complete(ctx, systemPrompt, buildUserPrompt(query, results))
	if err != nil {
		return nil, err
	}

	p.logger.Info("query answered",
		slog.String("domain", string(domain)),
		slog.Int("chunks", len(results)),
		slog.Duration("elapsed", time.Since(start)))

	return &Result{
		Query:     query,
		Response:  response,
		Sources:   uniqueSources(results),
		Timestamp: time.Now().UTC(),
	}, nil
}

// uniqueSources deduplicates sources by title, preserving retrieval order.
func uniqueSources(results []*core.SearchResult) []Source {
	seen := make(map[string]bool, len(results))
	sources := make([]Source, 0, len(results))
	for _, res := range results {
		info := res.Record.SourceInfo
		title := orUnknown(info.Title)
		if seen[title] {
			continue
		}
		seen[title] = true
		sources = append(sources, Source{
			Title:           title,
			Author:          orUnknown(info.Author),
			PublicationDate: orUnknown(info.PublicationDate),
		})
	}
	return sources
}
