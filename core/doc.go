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


// Package core defines the domain model shared by every CommandCore
// component: chunks, source attribution, knowledge records, the closed
// domain set, and the validation rules applied before a document is
// accepted for ingestion.
//
// The package has no dependencies on storage, AI services or transport so
// that the model can be used from any layer without import cycles.
package core
