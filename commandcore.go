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

// Package commandcore assembles the knowledge base: document ingestion,
// vector storage, and retrieval-augmented question answering.
package commandcore

import (
	"log/slog"

	"github.com/poiesic/commandcore/ai"
	"github.com/poiesic/commandcore/ai/openai"
	"github.com/poiesic/commandcore/chunk"
	"github.com/poiesic/commandcore/extract"
	"github.com/poiesic/commandcore/ingestion"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/retrieval"
	"github.com/poiesic/commandcore/storage"
	"github.com/poiesic/commandcore/storage/badger"
)

// System owns the storage backend, AI provider, and the shared components
// the pipelines are built from.
type System struct {
	backend       *badger.Backend
	knowledgeRepo storage.KnowledgeRepository
	provider      ai.Provider
	embedder      *ai.FallbackEmbedder
	registry      *extract.Registry
	chunker       *chunk.Chunker
	tracker       *jobs.Tracker
	logger        *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig       *ai.Config
	provider       ai.Provider
	tokenizerModel string
	maxTokens      int
	overlap        int
	logger         *slog.Logger
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a pre-built AI provider, bypassing the OpenAI
// client construction. Used mainly with mock providers.
func WithProvider(provider ai.Provider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithChunking overrides the chunk window geometry. Zero values keep the
// defaults.
func WithChunking(maxTokens, overlap int) SystemOption {
	return func(o *systemOptions) {
		o.maxTokens = maxTokens
		o.overlap = overlap
	}
}

// WithTokenizerModel selects the tiktoken vocabulary used for chunking.
func WithTokenizerModel(model string) SystemOption {
	return func(o *systemOptions) {
		o.tokenizerModel = model
	}
}

// WithLogger sets the logger shared across components.
func WithLogger(logger *slog.Logger) SystemOption {
	return func(o *systemOptions) {
		o.logger = logger
	}
}

// NewSystem opens the badger store at filePath and wires up the shared
// components.
func NewSystem(filePath string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig:       ai.DefaultConfig(),
		tokenizerModel: chunk.DefaultTokenizerModel,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	knowledgeRepo, err := badger.NewKnowledgeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			knowledgeRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	tokenizer, err := chunk.NewTiktokenTokenizer(options.tokenizerModel)
	if err != nil {
		provider.Close()
		knowledgeRepo.Close()
		backend.Close()
		return nil, err
	}

	chunker, err := chunk.New(tokenizer, options.maxTokens, options.overlap)
	if err != nil {
		provider.Close()
		knowledgeRepo.Close()
		backend.Close()
		return nil, err
	}

	return &System{
		backend:       backend,
		knowledgeRepo: knowledgeRepo,
		provider:      provider,
		embedder:      ai.NewFallbackEmbedder(provider.Embedder(), options.aiConfig.EmbeddingDimensions, options.logger),
		registry:      extract.NewRegistry(),
		chunker:       chunker,
		tracker:       jobs.NewTracker(options.logger),
		logger:        options.logger,
	}, nil
}

func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.knowledgeRepo.Close(); err != nil {
		s.logger.Error("error closing knowledge repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *System) KnowledgeRepository() storage.KnowledgeRepository {
	return s.knowledgeRepo
}

func (s *System) Tracker() *jobs.Tracker {
	return s.tracker
}

func (s *System) Provider() ai.Provider {
	return s.provider
}

func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(s.logger)}, opts...)
	return ingestion.NewPipeline(s.knowledgeRepo, s.registry, s.chunker, s.embedder, s.tracker, opts...)
}

func (s *System) NewRetrievalPipeline(opts ...retrieval.Option) (*retrieval.Pipeline, error) {
	opts = append([]retrieval.Option{retrieval.WithLogger(s.logger)}, opts...)
	return retrieval.NewPipeline(s.knowledgeRepo, s.embedder, s.provider.Generator(), opts...)
}
