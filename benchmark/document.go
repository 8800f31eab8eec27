package benchmark

import (
	"strings"

	"github.com/google/uuid"
)

// Fixed document fields, identical for every generated document
const (
	DocumentName  = "Test"
	DocumentValue = 123
)

// Document is the synthetic payload written by Write operations.
// Data holds the filler sized by the document size category.
type Document struct {
	ID    string `json:"uuid" bson:"uuid"`
	Name  string `json:"name" bson:"name"`
	Value int    `json:"value" bson:"value"`
	Data  string `json:"data" bson:"data"`
}

// GenerateDocument creates a document whose filler is exactly sizeKB*1024 bytes
// and whose id is a random 128-bit UUID
func GenerateDocument(sizeKB uint) Document {
	return Document{
		ID:    uuid.NewString(),
		Name:  DocumentName,
		Value: DocumentValue,
		Data:  strings.Repeat("x", int(sizeKB)*1024),
	}
}

// SizeBytes returns the filler payload size in bytes
func (d Document) SizeBytes() int {
	return len(d.Data)
}
