package extract

import (
	"bytes"
	"unicode/utf8"

	"github.com/poiesic/commandcore/core"
)

// PlainText extracts .txt files. The content is used verbatim after UTF-8
// sanitization; plain text carries no embedded metadata beyond the file name.
type PlainText struct{}

// NewPlainText creates a plain text extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extensions returns the extensions handled by this extractor.
func (p *PlainText) Extensions() []string {
	return []string{".txt"}
}

// Extract returns the file content as text. Invalid UTF-8 sequences are
// replaced rather than failing the document, since exported text files often
// carry stray bytes from other encodings.
func (p *PlainText) Extract(content []byte, fileName string) (*Extraction, error) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = string(bytes.ToValidUTF8(content, []byte("�")))
	}

	return &Extraction{
		Text: text,
		Meta: core.SourceInfo{
			Title: titleFromFileName(fileName),
		},
	}, nil
}
