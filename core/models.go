package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted knowledge records.
// It is generated using content-based hashing so that identical chunks of
// the same document always map to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Domain is a closed topical category used to partition and filter knowledge.
type Domain string

const (
	// DomainAI covers AI and machine learning documents.
	DomainAI Domain = "ai"
	// DomainCloud covers cloud infrastructure and services documents.
	DomainCloud Domain = "cloud"
	// DomainVirtOS covers virtualisation and OS-level documents.
	DomainVirtOS Domain = "virt-os"
)

// Domains lists every valid domain, in presentation order.
func Domains() []Domain {
	return []Domain{DomainAI, DomainCloud, DomainVirtOS}
}

// DefaultClassification is applied when the caller leaves Classification empty.
const DefaultClassification = "public"

// SourceInfo is the attribution attached to every chunk of a document.
// Title, Author and PublicationDate are required at upload time; the
// ingestion pipeline may replace placeholder values with metadata extracted
// from the document itself (see extract.MergeSourceInfo).
type SourceInfo struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationDate string `json:"publication_date"`
	URL             string `json:"url,omitempty"`
	AdditionalNotes string `json:"additional_notes,omitempty"`
	Classification  string `json:"classification,omitempty"`
}

// Chunk is a bounded token-length fragment of a source document.
// Chunks are immutable once produced by the chunker.
type Chunk struct {
	Text       string
	TokenCount int
	// Position is the chunk's start-token offset within the normalized
	// source text.
	Position int
	// StartToken and EndToken are the chunk's half-open token range within
	// the normalized source text.
	StartToken int
	EndToken   int
}

// KnowledgeRecord is the persisted unit of knowledge: one chunk of text
// with its embedding vector and source attribution. Records are created by
// the ingestion pipeline and never mutated, with one exception: the reembed
// repair pass may replace a degraded embedding.
type KnowledgeRecord struct {
	Id         ID
	ChunkText  string
	Embedding  []float32
	SourceInfo SourceInfo
	Domain     Domain
	Position   int
	TokenCount int
	// EmbeddingDegraded marks records whose embedding provider failed during
	// ingestion and were stored with the zero-vector fallback. Retrieval does
	// not filter on it; the reembed command repairs flagged records.
	EmbeddingDegraded bool
	InsertedAt        time.Time
}

// RecordID derives the content-based ID for a knowledge record from its
// identifying fields. Two uploads of the same chunk of the same document
// into the same domain collapse to one record.
func RecordID(domain Domain, title string, position int, chunkText string) ID {
	return IDFromContent(string(domain) + "|" + title + "|" + strconv.Itoa(position) + "|" + chunkText)
}

// SearchResult pairs a knowledge record with its similarity score for a query.
type SearchResult struct {
	Record *KnowledgeRecord
	Score  float32
}
