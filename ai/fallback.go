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


package ai

import (
	"context"
	"log/slog"
)

// ZeroVector returns an all-zero embedding of the given dimensionality.
// Zero vectors never match any query under cosine similarity, so records
// carrying one are effectively invisible to retrieval until re-embedded.
func ZeroVector(dims int) []float32 {
	return make([]float32, dims)
}

// FallbackEmbedder wraps an Embedder so that embedding never fails the
// caller. When the underlying embedder returns an error or a vector of the
// wrong length, EmbedText substitutes a zero vector of the configured
// dimensionality and reports the substitution through the degraded flag.
//
// Ingestion uses this wrapper so a flaky embedding service degrades a
// document instead of failing it.
type FallbackEmbedder struct {
	inner  Embedder
	dims   int
	logger *slog.Logger
}

// NewFallbackEmbedder creates a FallbackEmbedder around inner. dims is the
// fixed vector length every result must have. A nil logger disables logging.
func NewFallbackEmbedder(inner Embedder, dims int, logger *slog.Logger) *FallbackEmbedder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FallbackEmbedder{
		inner:  inner,
		dims:   dims,
		logger: logger,
	}
}

// EmbedText embeds a single text. It never returns an error: on failure the
// result is a zero vector and degraded is true.
func (f *FallbackEmbedder) EmbedText(ctx context.Context, text string) (vector []float32, degraded bool) {
	vec, err := f.inner.EmbedText(ctx, text)
	if err != nil {
		f.logger.Warn("embedding failed, substituting zero vector",
			slog.Int("text_length", len(text)),
			slog.String("error", err.Error()))
		return ZeroVector(f.dims), true
	}
	if len(vec) != f.dims {
		f.logger.Warn("embedding has unexpected dimensionality, substituting zero vector",
			slog.Int("got", len(vec)),
			slog.Int("want", f.dims))
		return ZeroVector(f.dims), true
	}
	return vec, false
}

// Dimensions returns the fixed vector length of every result.
func (f *FallbackEmbedder) Dimensions() int {
	return f.dims
}
