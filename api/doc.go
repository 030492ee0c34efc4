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

// Package api exposes the document ingestion and query pipelines over a
// JSON HTTP interface.
//
// Endpoints:
//
//	POST /v1/documents/upload           accept a document, start an async job
//	GET  /v1/documents/status/{job_id}  poll ingestion job progress
//	POST /v1/query                      answer a question with citations
//	GET  /v1/system/supported-file-types
//	GET  /v1/system/domains
//	GET  /health                        liveness probe, outside middleware
//
// Errors use a stable envelope: {"error": {"code": ..., "message": ...}}.
package api
