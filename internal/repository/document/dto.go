package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nabla-works/ragd/internal/domain"
)

// Payload field names shared by upload and search.
const (
	fieldDocumentID  = "document_id"
	fieldTitle       = "title"
	fieldContent     = "content"
	fieldUploadedAt  = "uploaded_at"
	fieldTotalChunks = "total_chunks"
	fieldChunkIndex  = "chunk_index"
)

// pointNamespace seeds deterministic point IDs: re-uploading the same
// document overwrites its points instead of duplicating them.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("ragd.nabla-works.com"))

// pointID derives the Qdrant point ID for one chunk of a document.
func pointID(docID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s:%d", docID, chunkIndex))).String()
}

// chunkPayload builds the point payload for one chunk. Extra chunk
// metadata lands top-level, next to the reserved fields.
func chunkPayload(c domain.Chunk, uploadedAt time.Time) map[string]any {
	payload := make(map[string]any, 6+len(c.Metadata))
	for k, v := range c.Metadata {
		payload[k] = v
	}
	payload[fieldDocumentID] = c.DocumentID
	payload[fieldTitle] = c.Title
	payload[fieldContent] = c.Content
	payload[fieldUploadedAt] = uploadedAt.UTC().Format(time.RFC3339)
	payload[fieldTotalChunks] = c.Total
	payload[fieldChunkIndex] = c.Index
	return payload
}

// infoFromPayload reconstructs document info from any one chunk payload.
func infoFromPayload(docID string, payload map[string]any) domain.DocumentInfo {
	info := domain.DocumentInfo{ID: docID}

	if s, ok := payload[fieldTitle].(string); ok {
		info.Title = s
	}
	if s, ok := payload[fieldUploadedAt].(string); ok {
		info.UploadedAt = s
	}
	if n, ok := payload[fieldTotalChunks].(float64); ok {
		info.TotalChunks = int(n)
	}

	meta := make(map[string]any)
	for k, v := range payload {
		switch k {
		case fieldDocumentID, fieldTitle, fieldContent, fieldUploadedAt, fieldTotalChunks, fieldChunkIndex:
			// reserved
		default:
			meta[k] = v
		}
	}
	if len(meta) > 0 {
		info.Metadata = meta
	}
	return info
}
