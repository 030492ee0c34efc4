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


package chunk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/commandcore/core"
)

const (
	// DefaultMaxTokens is the default chunk window size in tokens.
	DefaultMaxTokens = 500

	// DefaultOverlap is the default number of tokens shared between
	// consecutive chunks.
	DefaultOverlap = 50

	// MinChunkTokens is the minimum token count for an emitted chunk.
	// Trailing windows below this size are discarded as noise.
	MinChunkTokens = 10
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Chunker splits normalized text into overlapping token windows.
type Chunker struct {
	tokenizer Tokenizer
	maxTokens int
	overlap   int
}

// New creates a Chunker over the given tokenizer. maxTokens and overlap of
// zero select the defaults. The overlap must be smaller than maxTokens or
// the window would never advance.
func New(tokenizer Tokenizer, maxTokens, overlap int) (*Chunker, error) {
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlap == 0 {
		overlap = DefaultOverlap
	}
	if maxTokens < 1 {
		return nil, fmt.Errorf("%w: maxTokens must be positive, got %d", ErrInvalidChunking, maxTokens)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidChunking, overlap)
	}
	if overlap >= maxTokens {
		return nil, fmt.Errorf("%w: overlap (%d) must be smaller than maxTokens (%d)", ErrInvalidChunking, overlap, maxTokens)
	}
	return &Chunker{
		tokenizer: tokenizer,
		maxTokens: maxTokens,
		overlap:   overlap,
	}, nil
}

// Normalize collapses all whitespace runs to single spaces and trims the
// result. Chunking always operates on normalized text so a document's token
// boundaries don't depend on its original formatting.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Split normalizes text and cuts it into overlapping chunks. Consecutive
// chunks share the configured overlap, and windows shorter than
// MinChunkTokens are discarded. Each chunk's Position is its start-token
// offset, so positions of consecutive chunks differ by exactly
// maxTokens-overlap.
//
// Empty or whitespace-only text yields no chunks.
func (c *Chunker) Split(text string) []core.Chunk {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	tokens := c.tokenizer.Encode(normalized)
	if len(tokens) == 0 {
		return nil
	}

	step := c.maxTokens - c.overlap
	chunks := make([]core.Chunk, 0, (len(tokens)+step-1)/step)

	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		if len(window) < MinChunkTokens {
			break
		}

		chunks = append(chunks, core.Chunk{
			Text:       c.tokenizer.Decode(window),
			TokenCount: len(window),
			Position:   start,
			StartToken: start,
			EndToken:   end,
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks
}

// MaxTokens returns the configured chunk window size.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Overlap returns the configured window overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}
