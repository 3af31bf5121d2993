package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nabla-works/ragd/internal/domain"
)

// --- Mocks ---

type mockSearcher struct {
	result    domain.SearchResult
	err       error
	lastQuery domain.Query
	calls     int
}

func (m *mockSearcher) Search(_ context.Context, q domain.Query) (domain.SearchResult, error) {
	m.calls++
	m.lastQuery = q
	if m.err != nil {
		return domain.SearchResult{}, m.err
	}
	return m.result, nil
}

type mockCompleter struct {
	completion domain.Completion
	err        error
	deltas     []string

	lastMessages []domain.ChatMessage
	lastTemp     *float32
	completes    int
	streams      int
}

func (m *mockCompleter) Complete(_ context.Context, messages []domain.ChatMessage, temperature *float32) (domain.Completion, error) {
	m.completes++
	m.lastMessages = messages
	m.lastTemp = temperature
	if m.err != nil {
		return domain.Completion{}, m.err
	}
	return m.completion, nil
}

func (m *mockCompleter) Stream(_ context.Context, messages []domain.ChatMessage, temperature *float32, fn func(string) error) (domain.Completion, error) {
	m.streams++
	m.lastMessages = messages
	m.lastTemp = temperature
	if m.err != nil {
		return domain.Completion{}, m.err
	}
	for _, d := range m.deltas {
		if err := fn(d); err != nil {
			return domain.Completion{}, err
		}
	}
	return m.completion, nil
}

func retrieved() domain.SearchResult {
	return domain.SearchResult{
		Documents: []domain.ScoredDocument{
			{ID: "p-1", Score: 0.87, Rank: 1, Title: "연차휴가 규정", Content: "연차휴가는 15일이다."},
			{ID: "p-2", Score: 0.54, Rank: 2, Title: "", Content: "사용하지 않은 연차는 수당으로 보상한다."},
		},
		Trace: domain.Trace{RawCandidates: 5, AppliedThreshold: 0.3},
	}
}

func newTestService(search *mockSearcher, llm *mockCompleter) *Service {
	return New(search, llm, 6, zap.NewNop())
}

func lastUserMessage(t *testing.T, messages []domain.ChatMessage) string {
	t.Helper()
	if len(messages) == 0 {
		t.Fatal("no messages sent to the model")
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser {
		t.Fatalf("expected final message from user, got %s", last.Role)
	}
	return last.Content
}

// --- Answer ---

func TestAnswer_BuildsGroundedPrompt(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{completion: domain.Completion{Content: "연차는 15일입니다.", Model: "gpt-4o-mini"}}
	svc := newTestService(search, llm)

	ans, err := svc.Answer(context.Background(), Request{Message: "연차휴가는 며칠인가요?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(llm.lastMessages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(llm.lastMessages))
	}
	if llm.lastMessages[0].Role != domain.RoleSystem || llm.lastMessages[0].Content != systemPrompt {
		t.Error("expected the system prompt as the first message")
	}

	user := lastUserMessage(t, llm.lastMessages)
	if !strings.Contains(user, "[Document 1] (연차휴가 규정) [Relevance: 0.87]\n연차휴가는 15일이다.") {
		t.Errorf("context block missing titled document:\n%s", user)
	}
	if !strings.Contains(user, "[Document 2] [Relevance: 0.54]") {
		t.Errorf("untitled document must omit the title parens:\n%s", user)
	}
	if !strings.Contains(user, "\n\n---\n\n") {
		t.Error("expected documents separated by ---")
	}
	if !strings.Contains(user, "### Question:\n연차휴가는 며칠인가요?") {
		t.Errorf("question missing from prompt:\n%s", user)
	}

	if ans.Text != "연차는 15일입니다." {
		t.Errorf("unexpected answer: %q", ans.Text)
	}
	if ans.Model != "gpt-4o-mini" {
		t.Errorf("unexpected model: %q", ans.Model)
	}
	if len(ans.Sources) != 2 || ans.Sources[0].ID != "p-1" {
		t.Errorf("expected retrieval hits as sources, got %+v", ans.Sources)
	}
}

func TestAnswer_EmptyRetrievalUsesFallbackContext(t *testing.T) {
	search := &mockSearcher{result: domain.SearchResult{}}
	llm := &mockCompleter{completion: domain.Completion{Content: "자료가 없습니다."}}
	svc := newTestService(search, llm)

	if _, err := svc.Answer(context.Background(), Request{Message: "우주법은?"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := lastUserMessage(t, llm.lastMessages)
	if !strings.Contains(user, noContext) {
		t.Errorf("expected fallback context, got:\n%s", user)
	}
}

func TestAnswer_SkipsEmptyContentKeepsNumbering(t *testing.T) {
	search := &mockSearcher{result: domain.SearchResult{
		Documents: []domain.ScoredDocument{
			{ID: "p-1", Score: 0.9, Content: ""},
			{ID: "p-2", Score: 0.8, Content: "내용이 있는 청크"},
		},
	}}
	llm := &mockCompleter{completion: domain.Completion{Content: "ok"}}
	svc := newTestService(search, llm)

	if _, err := svc.Answer(context.Background(), Request{Message: "질문"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := lastUserMessage(t, llm.lastMessages)
	if strings.Contains(user, "[Document 1]") {
		t.Error("empty chunk must be skipped")
	}
	if !strings.Contains(user, "[Document 2]") {
		t.Error("numbering must follow the retrieval rank")
	}
}

func TestAnswer_TrimsHistory(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{completion: domain.Completion{Content: "ok"}}
	svc := newTestService(search, llm)

	history := make([]domain.ChatMessage, 8)
	for i := range history {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		history[i] = domain.ChatMessage{Role: role, Content: fmt.Sprintf("turn %d", i)}
	}

	if _, err := svc.Answer(context.Background(), Request{Message: "질문", History: history}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// system + 6 history turns + user question
	if len(llm.lastMessages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(llm.lastMessages))
	}
	if llm.lastMessages[1].Content != "turn 2" {
		t.Errorf("expected oldest turns dropped, first kept is %q", llm.lastMessages[1].Content)
	}
}

func TestAnswer_BlankHistoryRoleDefaultsToUser(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{completion: domain.Completion{Content: "ok"}}
	svc := newTestService(search, llm)

	history := []domain.ChatMessage{{Role: "", Content: "이전 질문"}}
	if _, err := svc.Answer(context.Background(), Request{Message: "질문", History: history}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.lastMessages[1].Role != domain.RoleUser {
		t.Errorf("expected blank role defaulted to user, got %q", llm.lastMessages[1].Role)
	}
}

func TestAnswer_ForwardsRetrievalParameters(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{completion: domain.Completion{Content: "ok"}}
	svc := newTestService(search, llm)

	temp := float32(1.2)
	req := Request{Message: "질문", TopK: 7, Collection: "other_docs", Temperature: &temp}
	if _, err := svc.Answer(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if search.lastQuery.TopK != 7 || search.lastQuery.Collection != "other_docs" {
		t.Errorf("retrieval parameters not forwarded: %+v", search.lastQuery)
	}
	if llm.lastTemp == nil || *llm.lastTemp != 1.2 {
		t.Errorf("temperature not forwarded: %v", llm.lastTemp)
	}
}

func TestAnswer_RecordsUsage(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{completion: domain.Completion{
		Content: "ok", PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150,
	}}
	svc := newTestService(search, llm)

	ctx, usage := domain.NewContextWithUsage(context.Background())
	ans, err := svc.Answer(ctx, Request{Message: "질문"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if usage.PromptTokens != 120 || usage.CompletionTokens != 30 {
		t.Errorf("context usage not recorded: %+v", usage)
	}
	if ans.Usage.PromptTokens != 120 || ans.Usage.CompletionTokens != 30 {
		t.Errorf("answer usage not populated: %+v", ans.Usage)
	}
}

func TestAnswer_SearchErrorPropagates(t *testing.T) {
	search := &mockSearcher{err: &domain.SearchError{
		Stage: domain.StageValidate,
		Err:   domain.NewValidation("query", "must not be empty"),
	}}
	llm := &mockCompleter{}
	svc := newTestService(search, llm)

	_, err := svc.Answer(context.Background(), Request{Message: ""})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if llm.completes != 0 {
		t.Error("model must not be called when retrieval fails")
	}
}

func TestAnswer_CompleterError(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{err: fmt.Errorf("completion API: status 500: %w", domain.ErrCompletionProviderError)}
	svc := newTestService(search, llm)

	_, err := svc.Answer(context.Background(), Request{Message: "질문"})
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}

// --- AnswerStream ---

func TestAnswerStream_ForwardsDeltas(t *testing.T) {
	search := &mockSearcher{result: retrieved()}
	llm := &mockCompleter{
		deltas:     []string{"연차는 ", "15일입니다."},
		completion: domain.Completion{Content: "연차는 15일입니다.", Model: "gpt-4o-mini", PromptTokens: 90, CompletionTokens: 12},
	}
	svc := newTestService(search, llm)

	var got []string
	ans, err := svc.AnswerStream(context.Background(), Request{Message: "연차는?"}, func(delta string) error {
		got = append(got, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 || got[0] != "연차는 " {
		t.Fatalf("unexpected deltas: %v", got)
	}
	if ans.Text != "연차는 15일입니다." {
		t.Errorf("unexpected full text: %q", ans.Text)
	}
	if len(ans.Sources) != 2 {
		t.Errorf("expected sources on streamed answer, got %d", len(ans.Sources))
	}
	if llm.streams != 1 || llm.completes != 0 {
		t.Error("expected the streaming path")
	}
}

func TestAnswerStream_SearchErrorBeforeFirstDelta(t *testing.T) {
	search := &mockSearcher{err: fmt.Errorf("query: %w", domain.ErrIndexUnavailable)}
	llm := &mockCompleter{deltas: []string{"x"}}
	svc := newTestService(search, llm)

	called := false
	_, err := svc.AnswerStream(context.Background(), Request{Message: "질문"}, func(string) error {
		called = true
		return nil
	})
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if called {
		t.Error("no deltas may be emitted when retrieval fails")
	}
}
