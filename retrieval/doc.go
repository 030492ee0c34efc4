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


// Package retrieval answers user queries against the knowledge store.
//
// The pipeline embeds the query, retrieves the most similar chunks from the
// requested domain, and asks the generator for an answer grounded in those
// chunks. Citations are numbered in retrieval order and deduplicated by
// document title in the returned source list.
//
// When nothing clears the similarity threshold, the pipeline short-circuits
// with a fixed insufficient-information response and never calls the
// generator.
package retrieval
