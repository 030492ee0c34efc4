// Package chunk splits document text into overlapping token windows for
// embedding.
//
// Splitting happens in token space rather than byte space so every chunk
// fits the embedding model's context budget regardless of language or
// formatting. Text is normalized first (whitespace runs collapsed to single
// spaces), then encoded, windowed with a fixed overlap, and decoded back
// into chunk text. Short trailing windows are discarded.
package chunk
