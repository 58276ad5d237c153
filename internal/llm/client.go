package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Client produces one completion for an ordered chat context. System
// messages carry the persona; providers without a system role fold them in.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
