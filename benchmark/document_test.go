package benchmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDocumentSize(t *testing.T) {
	for _, kb := range []uint{0, 1, 10, 100} {
		doc := GenerateDocument(kb)
		assert.Equal(t, int(kb)*1024, doc.SizeBytes())
		assert.Equal(t, DocumentName, doc.Name)
		assert.Equal(t, DocumentValue, doc.Value)
	}
}

func TestGenerateDocumentUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for iter := 0; iter < 10000; iter++ {
		doc := GenerateDocument(0)
		_, dup := seen[doc.ID]
		assert.False(t, dup)
		assert.Len(t, doc.ID, 36)
		seen[doc.ID] = struct{}{}
	}
}
