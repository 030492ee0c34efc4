package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Field order below is the
// on-disk format; changing it breaks existing databases.

var (
	IDMUS              = idMUS{}
	SourceInfoMUS      = sourceInfoMUS{}
	KnowledgeRecordMUS = knowledgeRecordMUS{}

	// Embeddings are dense float data, so elements use the fixed 4-byte
	// encoding rather than varint.
	embeddingMUS = ord.NewSliceSer[float32](raw.Float32)
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type sourceInfoMUS struct{}

func (sourceInfoMUS) Marshal(v SourceInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Author, bs[n:])
	n += ord.String.Marshal(v.PublicationDate, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	n += ord.String.Marshal(v.AdditionalNotes, bs[n:])
	n += ord.String.Marshal(v.Classification, bs[n:])
	return
}

func (sourceInfoMUS) Unmarshal(bs []byte) (v SourceInfo, n int, err error) {
	v.Title, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Author, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.PublicationDate, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.AdditionalNotes, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Classification, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (sourceInfoMUS) Size(v SourceInfo) (size int) {
	size = ord.String.Size(v.Title)
	size += ord.String.Size(v.Author)
	size += ord.String.Size(v.PublicationDate)
	size += ord.String.Size(v.URL)
	size += ord.String.Size(v.AdditionalNotes)
	size += ord.String.Size(v.Classification)
	return
}

func (sourceInfoMUS) Skip(bs []byte) (n int, err error) {
	for i := 0; i < 6; i++ {
		var n1 int
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type knowledgeRecordMUS struct{}

func (knowledgeRecordMUS) Marshal(v KnowledgeRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.ChunkText, bs[n:])
	n += embeddingMUS.Marshal(v.Embedding, bs[n:])
	n += SourceInfoMUS.Marshal(v.SourceInfo, bs[n:])
	n += ord.String.Marshal(string(v.Domain), bs[n:])
	n += varint.Int.Marshal(v.Position, bs[n:])
	n += varint.Int.Marshal(v.TokenCount, bs[n:])
	n += ord.Bool.Marshal(v.EmbeddingDegraded, bs[n:])
	n += raw.TimeUnixMicro.Marshal(v.InsertedAt, bs[n:])
	return
}

func (knowledgeRecordMUS) Unmarshal(bs []byte) (v KnowledgeRecord, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.ChunkText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = embeddingMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.SourceInfo, n1, err = SourceInfoMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var domain string
	domain, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Domain = Domain(domain)
	v.Position, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.TokenCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingDegraded, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = raw.TimeUnixMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (knowledgeRecordMUS) Size(v KnowledgeRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.ChunkText)
	size += embeddingMUS.Size(v.Embedding)
	size += SourceInfoMUS.Size(v.SourceInfo)
	size += ord.String.Size(string(v.Domain))
	size += varint.Int.Size(v.Position)
	size += varint.Int.Size(v.TokenCount)
	size += ord.Bool.Size(v.EmbeddingDegraded)
	size += raw.TimeUnixMicro.Size(v.InsertedAt)
	return
}
