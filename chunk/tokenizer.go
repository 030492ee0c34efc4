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


package chunk

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer converts text to and from token sequences. Chunk boundaries are
// computed in token space, so the same tokenizer must be used for encoding
// and decoding.
type Tokenizer interface {
	// Encode converts text into a sequence of token IDs.
	Encode(text string) []int

	// Decode converts a sequence of token IDs back into text.
	Decode(tokens []int) string
}

// DefaultTokenizerModel is the model whose encoding is used for chunking.
// Token counts must stay consistent across ingest runs, so this is fixed
// rather than tied to the embedding model.
const DefaultTokenizerModel = "gpt-3.5-turbo"

// TiktokenTokenizer implements Tokenizer using the tiktoken BPE encodings.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenTokenizer creates a tokenizer using the encoding of the given
// model. An empty model selects DefaultTokenizerModel.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	if model == "" {
		model = DefaultTokenizerModel
	}
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenTokenizer{encoding: encoding}, nil
}

// Encode converts text into token IDs using the model's BPE encoding.
func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode converts token IDs back into text.
func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}
