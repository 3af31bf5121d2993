package ragd

import (
	"errors"

	"github.com/nabla-works/ragd/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexUnavailable        = domain.ErrIndexUnavailable
	ErrCollectionNotFound      = domain.ErrCollectionNotFound
	ErrDocumentNotFound        = domain.ErrDocumentNotFound
	ErrValidation              = domain.ErrValidation
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrCompletionProviderError = domain.ErrCompletionProviderError
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrEmptyDocument           = domain.ErrEmptyDocument
)

// ErrChatNotConfigured is returned by Chat operations when the client was
// built without WithChat.
var ErrChatNotConfigured = errors.New("ragd: chat not configured (use WithChat)")
