package domain

import "context"

type usageKey struct{}

// Usage collects token consumption for a single request.
// The handler puts a mutable pointer into the context before calling the
// services; the embedding and chat layers write into it; the handler reads
// it for response headers and bodies.
type Usage struct {
	EmbeddingTokens  int
	PromptTokens     int
	CompletionTokens int
	Used             bool // true once any provider call was accounted
}

// TotalTokens sums every accounted token type.
func (u *Usage) TotalTokens() int {
	if u == nil {
		return 0
	}
	return u.EmbeddingTokens + u.PromptTokens + u.CompletionTokens
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
		u.Used = true
	}
}

// AddCompletionTokens records prompt and completion tokens of an LLM call.
func (u *Usage) AddCompletionTokens(prompt, completion int) {
	if u != nil {
		u.PromptTokens += prompt
		u.CompletionTokens += completion
		u.Used = true
	}
}
