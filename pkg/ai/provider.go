package ai

import "context"

// Chat roles understood by the completion endpoints.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message for LLM requests.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest defines the input to an LLM chat completion.
type ChatRequest struct {
	Model    string
	Messages []Message
}

// ChatResponse is a normalized response from an LLM.
type ChatResponse struct {
	Content string
	Model   string
}

// Provider is a synchronous chat-completion client. Streaming is not
// supported; a call returns the whole reply or an error.
type Provider interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
