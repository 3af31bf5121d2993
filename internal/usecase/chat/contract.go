package chat

import (
	"context"

	"github.com/nabla-works/ragd/internal/domain"
)

// Searcher retrieves context documents for a question.
type Searcher interface {
	Search(ctx context.Context, q domain.Query) (domain.SearchResult, error)
}

// Completer generates answers from chat messages. A non-nil temperature
// overrides the configured default.
type Completer interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, temperature *float32) (domain.Completion, error)
	Stream(ctx context.Context, messages []domain.ChatMessage, temperature *float32, fn func(delta string) error) (domain.Completion, error)
}
