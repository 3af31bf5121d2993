package ragd

import (
	"context"
	"time"

	documentuc "github.com/nabla-works/ragd/internal/usecase/document"
)

// DocumentService ingests documents and serves their chunk-backed views.
type DocumentService struct {
	svc documentUseCase
	obs *observer
}

// Upload splits the document, embeds its chunks and upserts them into the
// collection. Re-uploading identical content replaces the previous chunks.
func (s *DocumentService) Upload(ctx context.Context, up Upload) (res UploadResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_upload", start, err) }()

	r, err := s.svc.Upload(ctx, documentuc.UploadRequest{
		Title:    up.Title,
		Content:  up.Content,
		Metadata: up.Metadata,
	})
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{DocumentID: r.DocumentID, Title: r.Title, ChunkCount: r.ChunkCount}, nil
}

// UploadBatch uploads several documents, reporting per-document outcomes.
// A failed document does not abort the rest.
func (s *DocumentService) UploadBatch(ctx context.Context, ups []Upload) (res BatchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_upload_batch", start, err) }()

	reqs := make([]documentuc.UploadRequest, len(ups))
	for i, up := range ups {
		reqs[i] = documentuc.UploadRequest{
			Title:    up.Title,
			Content:  up.Content,
			Metadata: up.Metadata,
		}
	}

	r, err := s.svc.UploadBatch(ctx, reqs, "")
	if err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{Total: r.Total, Succeeded: r.Succeeded, Failed: r.Failed}
	out.Items = make([]BatchItem, len(r.Items))
	for i, item := range r.Items {
		out.Items[i] = BatchItem{
			Result: UploadResult{
				DocumentID: item.Result.DocumentID,
				Title:      item.Result.Title,
				ChunkCount: item.Result.ChunkCount,
			},
			Err: item.Err,
		}
	}
	return out, nil
}

// Delete removes every chunk of the document and returns how many there
// were.
func (s *DocumentService) Delete(ctx context.Context, docID string) (count int, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_delete", start, err) }()

	return s.svc.Delete(ctx, "", docID)
}

// List returns a summary of every indexed document.
func (s *DocumentService) List(ctx context.Context) (infos []DocumentInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_list", start, err) }()

	domInfos, err := s.svc.List(ctx, "")
	if err != nil {
		return nil, err
	}
	infos = make([]DocumentInfo, len(domInfos))
	for i, info := range domInfos {
		infos[i] = infoFromDomain(info)
	}
	return infos, nil
}

// Info returns the summary of one indexed document.
func (s *DocumentService) Info(ctx context.Context, docID string) (info DocumentInfo, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_info", start, err) }()

	domInfo, err := s.svc.Info(ctx, "", docID)
	if err != nil {
		return DocumentInfo{}, err
	}
	return infoFromDomain(domInfo), nil
}

// Similar returns chunks semantically close to the stored document,
// excluding the document's own chunks. Zero topK uses the default.
func (s *DocumentService) Similar(ctx context.Context, docID string, topK int) (docs []ScoredDocument, err error) {
	start := time.Now()
	defer func() { s.obs.observe("document_similar", start, err) }()

	domDocs, err := s.svc.Similar(ctx, "", docID, topK)
	if err != nil {
		return nil, err
	}
	return docsFromDomain(domDocs), nil
}
