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

package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the maximum accepted size for a single document upload.
const MaxUploadBytes = 10 << 20 // 10 MB

// SupportedExtensions lists the file extensions accepted for ingestion,
// lowercase, including the leading dot.
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx"}
}

// ValidateDomain checks that a domain belongs to the closed set.
// Any other value must be rejected before a job is created.
func ValidateDomain(domain Domain) error {
	switch domain {
	case DomainAI, DomainCloud, DomainVirtOS:
		return nil
	}
	return fmt.Errorf("%w: %q must be one of: ai, cloud, virt-os", ErrInvalidDomain, domain)
}

// ValidateSourceInfo validates upload-time source attribution.
//
// Validation rules:
//   - Title, Author and PublicationDate must not be empty
//
// Placeholder values such as "Untitled Document" are accepted here; the
// ingestion pipeline replaces them with extracted metadata when available.
func ValidateSourceInfo(info *SourceInfo) error {
	if info == nil {
		return fmt.Errorf("%w: source info is nil", ErrInvalidSourceInfo)
	}
	if strings.TrimSpace(info.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSourceInfo, ErrEmptyTitle)
	}
	if strings.TrimSpace(info.Author) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSourceInfo, ErrEmptyAuthor)
	}
	if strings.TrimSpace(info.PublicationDate) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSourceInfo, ErrEmptyPublicationDate)
	}
	return nil
}

// ValidateFileName checks that a file name carries a supported extension.
func ValidateFileName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions() {
		if ext == supported {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (supported: txt, pdf, docx)", ErrUnsupportedFileType, ext)
}

// ValidateFileSize checks an upload against MaxUploadBytes.
func ValidateFileSize(size int64) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, size, MaxUploadBytes)
	}
	return nil
}

// NormalizeSourceInfo fills defaulted fields in place.
func NormalizeSourceInfo(info *SourceInfo) {
	if info.Classification == "" {
		info.Classification = DefaultClassification
	}
}
