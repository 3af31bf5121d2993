// Package chat grounds LLM answers in retrieved documents: search first,
// render the hits into a context block, then complete with the
// conversation history attached.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
)

// systemPrompt steers the model toward grounded answers in the language
// of the question.
const systemPrompt = `You are a friendly and professional AI assistant.
You provide accurate and useful answers based on the provided context information.

Follow these guidelines when answering:
1. Prioritize information from the provided context
2. If information is not in the context, clearly state "This information is not available in the provided context"
3. Provide clear and structured answers
4. Mention relevant sources when necessary
5. **IMPORTANT: Always respond in the same language as the user's question**
   - If the user asks in Korean, respond in Korean
   - If the user asks in English, respond in English
   - If the user asks in Japanese, respond in Japanese
   - Match the language of any other language the user uses
`

const userTemplate = `Please answer the question based on the following context information.

### Context:
%s

### Question:
%s

### Answer:`

// noContext is what the model sees when retrieval came back empty.
const noContext = "No relevant information found."

// defaultMaxHistory bounds how many trailing conversation turns are
// forwarded to the model.
const defaultMaxHistory = 6

// Request is one chat turn: the user question plus optional history and
// retrieval/generation overrides.
type Request struct {
	Message     string
	History     []domain.ChatMessage
	TopK        int
	Collection  string
	Temperature *float32
}

// Service answers questions over the document corpus.
type Service struct {
	search     Searcher
	llm        Completer
	maxHistory int
	logger     *zap.Logger
}

// New creates a chat service. maxHistory <= 0 falls back to the default.
func New(search Searcher, llm Completer, maxHistory int, logger *zap.Logger) *Service {
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &Service{
		search:     search,
		llm:        llm,
		maxHistory: maxHistory,
		logger:     logger,
	}
}

// Answer retrieves context for the question and generates one complete
// answer grounded in it.
func (s *Service) Answer(ctx context.Context, req Request) (domain.Answer, error) {
	result, messages, err := s.prepare(ctx, req)
	if err != nil {
		return domain.Answer{}, err
	}

	comp, err := s.llm.Complete(ctx, messages, req.Temperature)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return s.finish(ctx, result, comp), nil
}

// AnswerStream is Answer with the generated text delivered incrementally
// through fn. The returned answer holds the full text and usage.
func (s *Service) AnswerStream(ctx context.Context, req Request, fn func(delta string) error) (domain.Answer, error) {
	result, messages, err := s.prepare(ctx, req)
	if err != nil {
		return domain.Answer{}, err
	}

	comp, err := s.llm.Stream(ctx, messages, req.Temperature, fn)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return s.finish(ctx, result, comp), nil
}

// prepare runs retrieval and assembles the prompt.
func (s *Service) prepare(ctx context.Context, req Request) (domain.SearchResult, []domain.ChatMessage, error) {
	result, err := s.search.Search(ctx, domain.Query{
		Text:       req.Message,
		TopK:       req.TopK,
		Collection: req.Collection,
	})
	if err != nil {
		return domain.SearchResult{}, nil, fmt.Errorf("retrieve context: %w", err)
	}

	messages := buildMessages(req.Message, buildContext(result.Documents), s.trimHistory(req.History))

	s.logger.Debug("Chat context assembled",
		zap.Int("sources", len(result.Documents)),
		zap.Int("history", len(req.History)),
		zap.Bool("cache_hit", result.Trace.CacheHit),
	)

	return result, messages, nil
}

func (s *Service) finish(ctx context.Context, result domain.SearchResult, comp domain.Completion) domain.Answer {
	domain.UsageFromContext(ctx).AddCompletionTokens(comp.PromptTokens, comp.CompletionTokens)

	s.logger.Debug("Answer generated",
		zap.String("model", comp.Model),
		zap.Int("sources", len(result.Documents)),
		zap.Int("total_tokens", comp.TotalTokens),
	)

	return domain.Answer{
		Text:    comp.Content,
		Sources: result.Documents,
		Model:   comp.Model,
		Usage: domain.Usage{
			PromptTokens:     comp.PromptTokens,
			CompletionTokens: comp.CompletionTokens,
			Used:             true,
		},
	}
}

// trimHistory keeps the newest maxHistory turns and defaults blank roles
// to user.
func (s *Service) trimHistory(history []domain.ChatMessage) []domain.ChatMessage {
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	out := make([]domain.ChatMessage, len(history))
	for i, m := range history {
		if m.Role == "" {
			m.Role = domain.RoleUser
		}
		out[i] = m
	}
	return out
}

// buildContext renders retrieved chunks into the prompt context block.
// Document numbering follows the retrieval rank even when entries with
// empty content are skipped.
func buildContext(docs []domain.ScoredDocument) string {
	if len(docs) == 0 {
		return noContext
	}

	parts := make([]string, 0, len(docs))
	for i, d := range docs {
		if d.Content == "" {
			continue
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "[Document %d]", i+1)
		if d.Title != "" {
			fmt.Fprintf(&sb, " (%s)", d.Title)
		}
		fmt.Fprintf(&sb, " [Relevance: %.2f]\n%s", d.Score, d.Content)
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func buildMessages(question, context string, history []domain.ChatMessage) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: fmt.Sprintf(userTemplate, context, question),
	})
	return messages
}
