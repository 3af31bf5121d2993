package ragd

import (
	"context"
	"time"

	chatuc "github.com/nabla-works/ragd/internal/usecase/chat"
)

// AskRequest is one question over the corpus. History carries prior turns
// newest-last; zero TopK uses the configured default.
type AskRequest struct {
	Question    string
	History     []ChatMessage
	TopK        int
	Temperature *float32
}

// ChatService generates grounded answers. Requires WithChat.
type ChatService struct {
	svc chatUseCase
	obs *observer
}

// Ask retrieves context for the question and generates one complete
// answer grounded in it.
func (s *ChatService) Ask(ctx context.Context, req AskRequest) (ans Answer, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ask", start, err) }()

	if s.svc == nil {
		return Answer{}, ErrChatNotConfigured
	}

	answer, err := s.svc.Answer(ctx, toChatRequest(req))
	if err != nil {
		return Answer{}, err
	}
	return answerFromDomainAnswer(answer), nil
}

// AskStream is Ask with the generated text delivered incrementally
// through fn. The returned answer holds the full text and usage.
func (s *ChatService) AskStream(ctx context.Context, req AskRequest, fn func(delta string) error) (ans Answer, err error) {
	start := time.Now()
	defer func() { s.obs.observe("ask_stream", start, err) }()

	if s.svc == nil {
		return Answer{}, ErrChatNotConfigured
	}

	answer, err := s.svc.AnswerStream(ctx, toChatRequest(req), fn)
	if err != nil {
		return Answer{}, err
	}
	return answerFromDomainAnswer(answer), nil
}

func toChatRequest(req AskRequest) chatuc.Request {
	return chatuc.Request{
		Message:     req.Question,
		History:     historyToDomain(req.History),
		TopK:        req.TopK,
		Temperature: req.Temperature,
	}
}
