package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("the same content")
		b := IDFromContent("the same content")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct IDs", func(t *testing.T) {
		a := IDFromContent("content a")
		b := IDFromContent("content b")
		assert.NotEqual(t, a, b)
	})

	t.Run("empty content is valid", func(t *testing.T) {
		a := IDFromContent("")
		b := IDFromContent("")
		assert.Equal(t, a, b)
	})
}

func TestRecordID(t *testing.T) {
	a := RecordID(DomainAI, "Title", 0, "chunk text")

	assert.Equal(t, a, RecordID(DomainAI, "Title", 0, "chunk text"))
	assert.NotEqual(t, a, RecordID(DomainCloud, "Title", 0, "chunk text"))
	assert.NotEqual(t, a, RecordID(DomainAI, "Other", 0, "chunk text"))
	assert.NotEqual(t, a, RecordID(DomainAI, "Title", 450, "chunk text"))
	assert.NotEqual(t, a, RecordID(DomainAI, "Title", 0, "other text"))
}

func TestDomains(t *testing.T) {
	domains := Domains()
	assert.Len(t, domains, 3)
	for _, d := range domains {
		assert.NoError(t, ValidateDomain(d))
	}
}
