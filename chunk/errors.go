package chunk

import "errors"

var (
	// ErrInvalidChunking indicates the chunker was configured with an
	// unusable window geometry, such as overlap >= maxTokens.
	ErrInvalidChunking = errors.New("invalid chunking configuration")
)
