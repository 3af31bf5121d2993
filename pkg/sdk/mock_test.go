package ragd

import (
	"context"

	"github.com/nabla-works/ragd/internal/domain"
	chatuc "github.com/nabla-works/ragd/internal/usecase/chat"
	documentuc "github.com/nabla-works/ragd/internal/usecase/document"
	healthuc "github.com/nabla-works/ragd/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, q domain.Query) (domain.SearchResult, error)
	clears   int
}

func (m *mockSearchUC) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	return m.searchFn(ctx, q)
}

func (m *mockSearchUC) ClearCache() { m.clears++ }

// --- chatUseCase mock ---

type mockChatUC struct {
	answerFn func(ctx context.Context, req chatuc.Request) (domain.Answer, error)
	streamFn func(ctx context.Context, req chatuc.Request, fn func(delta string) error) (domain.Answer, error)
}

func (m *mockChatUC) Answer(ctx context.Context, req chatuc.Request) (domain.Answer, error) {
	return m.answerFn(ctx, req)
}

func (m *mockChatUC) AnswerStream(ctx context.Context, req chatuc.Request, fn func(delta string) error) (domain.Answer, error) {
	return m.streamFn(ctx, req, fn)
}

// --- documentUseCase mock ---

type mockDocumentUC struct {
	uploadFn      func(ctx context.Context, req documentuc.UploadRequest) (documentuc.UploadResult, error)
	uploadBatchFn func(ctx context.Context, docs []documentuc.UploadRequest, collection string) (documentuc.BatchResult, error)
	deleteFn      func(ctx context.Context, collection, docID string) (int, error)
	listFn        func(ctx context.Context, collection string) ([]domain.DocumentInfo, error)
	infoFn        func(ctx context.Context, collection, docID string) (domain.DocumentInfo, error)
	similarFn     func(ctx context.Context, collection, docID string, topK int) ([]domain.ScoredDocument, error)
}

func (m *mockDocumentUC) Upload(ctx context.Context, req documentuc.UploadRequest) (documentuc.UploadResult, error) {
	return m.uploadFn(ctx, req)
}

func (m *mockDocumentUC) UploadBatch(ctx context.Context, docs []documentuc.UploadRequest, collection string) (documentuc.BatchResult, error) {
	return m.uploadBatchFn(ctx, docs, collection)
}

func (m *mockDocumentUC) Delete(ctx context.Context, collection, docID string) (int, error) {
	return m.deleteFn(ctx, collection, docID)
}

func (m *mockDocumentUC) List(ctx context.Context, collection string) ([]domain.DocumentInfo, error) {
	return m.listFn(ctx, collection)
}

func (m *mockDocumentUC) Info(ctx context.Context, collection, docID string) (domain.DocumentInfo, error) {
	return m.infoFn(ctx, collection, docID)
}

func (m *mockDocumentUC) Similar(ctx context.Context, collection, docID string, topK int) ([]domain.ScoredDocument, error) {
	return m.similarFn(ctx, collection, docID, topK)
}

// --- collectionUseCase mock ---

type mockCollectionUC struct {
	ensureFn func(ctx context.Context) error
	infoFn   func(ctx context.Context, name string) (domain.CollectionInfo, error)
	infosFn  func(ctx context.Context) ([]domain.CollectionInfo, int, error)
}

func (m *mockCollectionUC) EnsureDefault(ctx context.Context) error {
	return m.ensureFn(ctx)
}

func (m *mockCollectionUC) Info(ctx context.Context, name string) (domain.CollectionInfo, error) {
	return m.infoFn(ctx, name)
}

func (m *mockCollectionUC) Infos(ctx context.Context) ([]domain.CollectionInfo, int, error) {
	return m.infosFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- public Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}
