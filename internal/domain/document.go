package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// documentIDLength is the hex prefix length of the content hash used as a
// document id.
const documentIDLength = 16

// Document is a source text submitted for indexing.
type Document struct {
	ID       string
	Title    string
	Content  string
	Metadata map[string]any
}

// Chunk is one embeddable slice of a document, carrying enough payload to
// reconstruct a search hit without a second lookup.
type Chunk struct {
	DocumentID string
	Index      int
	Total      int
	Title      string
	Content    string
	Metadata   map[string]any
}

// DocumentInfo summarizes an indexed document as recorded in its chunk
// payloads.
type DocumentInfo struct {
	ID          string
	Title       string
	TotalChunks int
	UploadedAt  string
	Metadata    map[string]any
}

// NewDocumentID derives a stable document id from content, so re-uploading
// the same text overwrites its previous chunks instead of duplicating them.
func NewDocumentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:documentIDLength]
}
