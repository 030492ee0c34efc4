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


// Package ai defines the capability interfaces CommandCore needs from AI
// services: text embedding and answer generation.
//
// The interfaces are intentionally minimal so implementations can wrap any
// OpenAI-compatible API, a local model server, or a test double. Production
// code uses the openai subpackage; tests use the mock subpackage.
//
// FallbackEmbedder wraps any Embedder with zero-vector substitution so the
// ingestion pipeline can treat embedding as infallible: a failed embedding
// degrades the affected record rather than failing the document.
package ai
