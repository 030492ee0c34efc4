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


// Package extract converts uploaded documents into plain text.
//
// Each supported format (.txt, .pdf, .docx) has a TextExtractor; the
// Registry dispatches by file extension. Extractors also surface any
// metadata the format embeds (PDF information dictionary, DOCX core
// properties), which MergeSourceInfo uses to fill placeholder fields in
// caller-provided source info.
package extract
