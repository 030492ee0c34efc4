package ai

import "errors"

var (
	// ErrEmbeddingFailed indicates the embedding service returned an error
	// or an empty result for the given text.
	ErrEmbeddingFailed = errors.New("embedding request failed")

	// ErrGenerationFailed indicates the generation service returned an error
	// or produced no choices for the given prompt.
	ErrGenerationFailed = errors.New("generation request failed")

	// ErrEmptyResponse indicates the provider responded successfully but
	// with no usable content.
	ErrEmptyResponse = errors.New("provider returned empty response")
)
