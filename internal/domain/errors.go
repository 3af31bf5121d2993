package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable signals that the vector index cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrCollectionNotFound signals a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrValidation signals a rejected request.
	ErrValidation = errors.New("validation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals an LLM provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyDocument signals that no chunks could be extracted from a document.
	ErrEmptyDocument = errors.New("document has no extractable text")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error for a single field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// EmbeddingError wraps ErrEmbeddingProviderError with the provider identity.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is reports true for ErrEmbeddingProviderError regardless of the cause.
func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbeddingProviderError
}

// NewEmbeddingError creates a provider-attributed embedding error.
func NewEmbeddingError(provider string, err error) error {
	return &EmbeddingError{Provider: provider, Err: err}
}

// Search pipeline stages recorded in SearchError.
const (
	StageValidate = "validate"
	StageEmbed    = "embed"
	StageQuery    = "index_query"
)

// SearchError attributes a retrieval failure to a pipeline stage and carries
// the trace accumulated before the failure.
type SearchError struct {
	Stage string
	Trace Trace
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Stage, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }
