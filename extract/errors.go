package extract

import "errors"

var (
	// ErrExtractionFailed indicates a document could not be parsed as its
	// declared format.
	ErrExtractionFailed = errors.New("text extraction failed")
)
