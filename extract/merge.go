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


package extract

import (
	"strings"

	"github.com/poiesic/commandcore/core"
)

// Placeholder values callers use when they don't know a field. A provided
// field holding one of these is treated as absent, so document-embedded
// metadata can fill it in.
var (
	titlePlaceholders  = []string{"", "Untitled Document", "Unknown"}
	authorPlaceholders = []string{"", "Unknown Author", "Unknown"}
	datePlaceholders   = []string{"", "2023-01-01"}
)

// MergeSourceInfo fills placeholder fields of the caller-provided source
// info with metadata extracted from the document itself. Real caller values
// always win; extracted values only replace placeholders, and only when the
// extracted value is non-empty. The merge is idempotent: merging the result
// again with the same extraction changes nothing.
func MergeSourceInfo(provided core.SourceInfo, extracted core.SourceInfo) core.SourceInfo {
	merged := provided

	if isPlaceholder(provided.Title, titlePlaceholders) && strings.TrimSpace(extracted.Title) != "" {
		merged.Title = strings.TrimSpace(extracted.Title)
	}
	if isPlaceholder(provided.Author, authorPlaceholders) && strings.TrimSpace(extracted.Author) != "" {
		merged.Author = strings.TrimSpace(extracted.Author)
	}
	if isPlaceholder(provided.PublicationDate, datePlaceholders) && strings.TrimSpace(extracted.PublicationDate) != "" {
		merged.PublicationDate = strings.TrimSpace(extracted.PublicationDate)
	}

	return merged
}

func isPlaceholder(value string, placeholders []string) bool {
	value = strings.TrimSpace(value)
	for _, p := range placeholders {
		if value == p {
			return true
		}
	}
	return false
}
