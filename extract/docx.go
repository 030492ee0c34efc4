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
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/commandcore/core"
)

// DOCX extracts Office Open XML word processing documents. Text comes from
// the paragraph runs in word/document.xml; title and author come from the
// docProps/core.xml properties part when present.
type DOCX struct{}

// NewDOCX creates a DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// Extensions returns the extensions handled by this extractor.
func (d *DOCX) Extensions() []string {
	return []string{".docx"}
}

// Extract parses the DOCX zip archive.
func (d *DOCX) Extract(content []byte, fileName string) (*Extraction, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid docx archive: %w", ErrExtractionFailed, err)
	}

	text, err := docxDocumentText(reader)
	if err != nil {
		return nil, err
	}

	meta := docxCoreProperties(reader)
	if meta.Title == "" {
		meta.Title = titleFromFileName(fileName)
	}

	return &Extraction{
		Text: text,
		Meta: meta,
	}, nil
}

// docxDocumentText extracts text from word/document.xml.
func docxDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}

		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
		}

		return parseDocumentXML(raw), nil
	}
	return "", fmt.Errorf("%w: archive has no word/document.xml", ErrExtractionFailed)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts text content from the document XML.
// Paragraphs are joined with newlines; the chunker collapses whitespace later.
func parseDocumentXML(raw []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, text := range run.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Created string `xml:"created"`
}

// docxCoreProperties reads title, creator, and creation date from
// docProps/core.xml. Missing parts or fields simply stay empty.
func docxCoreProperties(reader *zip.Reader) core.SourceInfo {
	var meta core.SourceInfo
	for _, file := range reader.File {
		if file.Name != "docProps/core.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			break
		}

		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			break
		}

		var props coreXML
		if err := xml.Unmarshal(raw, &props); err == nil {
			meta.Title = strings.TrimSpace(props.Title)
			meta.Author = strings.TrimSpace(props.Creator)
			// Created is W3CDTF, e.g. "2024-03-01T09:30:00Z".
			if len(props.Created) >= 10 {
				meta.PublicationDate = props.Created[:10]
			}
		}
		break
	}
	return meta
}
