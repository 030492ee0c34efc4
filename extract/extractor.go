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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/commandcore/core"
)

// Extraction is the result of extracting a document: its plain text plus any
// metadata the format itself carries. Metadata fields the format doesn't
// provide are left empty; MergeSourceInfo decides whether they are used.
type Extraction struct {
	Text string
	Meta core.SourceInfo
}

// TextExtractor converts one document format into plain text.
type TextExtractor interface {
	// Extensions returns the lowercased file extensions this extractor
	// handles, including the leading dot.
	Extensions() []string

	// Extract parses the document content. fileName is used only for
	// fallback metadata, never for dispatch.
	Extract(content []byte, fileName string) (*Extraction, error)
}

// Registry dispatches documents to extractors by file extension.
type Registry struct {
	byExt map[string]TextExtractor
}

// NewRegistry creates a registry with all built-in extractors registered:
// plain text, PDF, and DOCX.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]TextExtractor)}
	r.Register(NewPlainText())
	r.Register(NewPDF())
	r.Register(NewDOCX())
	return r
}

// Register adds an extractor for each extension it reports. A later
// registration for the same extension wins.
func (r *Registry) Register(e TextExtractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// ForFile returns the extractor responsible for the given file name.
func (r *Registry) ForFile(fileName string) (TextExtractor, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFileType, ext)
	}
	return e, nil
}

// Extract dispatches content to the extractor for fileName's extension.
// When the format carries no publication date, the extraction is stamped
// with the current processing date so merged metadata never keeps a
// placeholder date.
func (r *Registry) Extract(content []byte, fileName string) (*Extraction, error) {
	e, err := r.ForFile(fileName)
	if err != nil {
		return nil, err
	}
	ex, err := e.Extract(content, fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ex.Meta.PublicationDate) == "" {
		ex.Meta.PublicationDate = time.Now().Format("2006-01-02")
	}
	return ex, nil
}

// titleFromFileName derives a readable title from a file name: extension
// stripped, separators replaced with spaces.
func titleFromFileName(fileName string) string {
	name := filepath.Base(fileName)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}
