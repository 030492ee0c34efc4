// Package ingestion provides pipeline orchestration for processing documents.
//
// The Pipeline type manages the ingestion workflow for uploaded documents:
//   - Extracting plain text from the source format
//   - Merging caller-provided metadata with document-embedded metadata
//   - Chunking the text into overlapping token windows
//   - Generating embeddings, with zero-vector fallback on failure
//   - Persisting all records of a document atomically
//
// Documents are processed concurrently on a worker pool. A pipeline task
// never returns an error to its caller: every outcome, including panics,
// is reported through the job tracker.
package ingestion
