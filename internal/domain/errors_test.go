package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidation("top_k", "must be between 1 and 20")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected errors.Is(err, ErrValidation)")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatal("expected errors.As to find *ValidationError")
	}
	if ve.Field != "top_k" {
		t.Errorf("Field = %q, want %q", ve.Field, "top_k")
	}
}

func TestEmbeddingError_CarriesProviderAndCause(t *testing.T) {
	cause := errors.New("status 401")
	err := NewEmbeddingError("voyage", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Error("expected errors.Is(err, ErrEmbeddingProviderError)")
	}

	var ee *EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatal("expected errors.As to find *EmbeddingError")
	}
	if ee.Provider != "voyage" {
		t.Errorf("Provider = %q, want %q", ee.Provider, "voyage")
	}
}

func TestSearchError_WrapsChain(t *testing.T) {
	cause := NewEmbeddingError("openai", errors.New("timeout"))
	err := &SearchError{Stage: StageEmbed, Trace: Trace{AppliedThreshold: 0.3}, Err: cause}

	if !errors.Is(err, ErrEmbeddingProviderError) {
		t.Error("expected sentinel to be reachable through SearchError")
	}

	var ee *EmbeddingError
	if !errors.As(err, &ee) {
		t.Fatal("expected *EmbeddingError to be reachable through SearchError")
	}

	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to find *SearchError")
	}
	if se.Trace.AppliedThreshold != 0.3 {
		t.Errorf("Trace.AppliedThreshold = %v, want 0.3", se.Trace.AppliedThreshold)
	}
}

func TestSearchError_IndexSentinel(t *testing.T) {
	err := &SearchError{
		Stage: StageQuery,
		Err:   fmt.Errorf("query collection: %w", ErrIndexUnavailable),
	}

	if !errors.Is(err, ErrIndexUnavailable) {
		t.Error("expected ErrIndexUnavailable to be reachable through SearchError")
	}
	if errors.Is(err, ErrCollectionNotFound) {
		t.Error("ErrCollectionNotFound should not match")
	}
}
