package badger

import (
	"fmt"

	"github.com/poiesic/commandcore/core"
)

// Key prefixes for different data types
const (
	knowledgeRecordPrefix = "knowrec"
)

// makeKnowledgeRecordKey generates a key for a knowledge record by ID.
func makeKnowledgeRecordKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", knowledgeRecordPrefix, id))
}
