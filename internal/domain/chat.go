package domain

// Conversation roles accepted in chat history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// Completion is the outcome of a single LLM call.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Answer is a RAG chat response: the generated text plus the retrieved
// sources it was grounded on.
type Answer struct {
	Text    string
	Sources []ScoredDocument
	Model   string
	Usage   Usage
}
