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
	"bytes"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/poiesic/commandcore/core"
)

// PDF extracts PDF documents. Text comes from the content streams of every
// page; title, author, and creation date come from the document information
// dictionary when present.
type PDF struct{}

// NewPDF creates a PDF extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// Extensions returns the extensions handled by this extractor.
func (p *PDF) Extensions() []string {
	return []string{".pdf"}
}

// Extract parses the PDF content.
func (p *PDF) Extract(content []byte, fileName string) (*Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid pdf: %w", ErrExtractionFailed, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	meta := pdfInfo(reader)
	if meta.Title == "" {
		meta.Title = titleFromFileName(fileName)
	}

	return &Extraction{
		Text: buf.String(),
		Meta: meta,
	}, nil
}

// pdfInfo reads the document information dictionary. A PDF without one, or
// with non-string entries, yields empty fields.
func pdfInfo(reader *pdf.Reader) core.SourceInfo {
	var meta core.SourceInfo

	info := reader.Trailer().Key("Info")
	if info.Kind() != pdf.Dict {
		return meta
	}

	meta.Title = strings.TrimSpace(info.Key("Title").Text())
	meta.Author = strings.TrimSpace(info.Key("Author").Text())
	meta.PublicationDate = parsePDFDate(info.Key("CreationDate").Text())

	return meta
}

// parsePDFDate converts a PDF date string ("D:YYYYMMDDHHmmSS...") into
// ISO "YYYY-MM-DD". Anything that doesn't carry at least a full date
// yields an empty string.
func parsePDFDate(raw string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "D:")
	if len(raw) < 8 {
		return ""
	}
	for _, r := range raw[:8] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return raw[0:4] + "-" + raw[4:6] + "-" + raw[6:8]
}
