// Package reembed repairs knowledge records stored with a fallback embedding.
//
// Records flagged as degraded during ingestion carry a zero vector and are
// invisible to retrieval. This package iterates those records in batches,
// embeds their chunk text again with retry and exponential backoff, and
// clears the degraded flag on success. Vectors are normalized for cosine
// similarity search.
package reembed
