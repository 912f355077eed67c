// Package llm talks to chat-completion providers and returns raw JSON
// content plus token usage.
package llm

import "context"

// Provider sends a single request to an LLM.
type Provider interface {
	// Generate returns the model's reply. When req.Schema is set the
	// provider asks for JSON output; validation is left to the caller.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Schema describes the JSON structure expected in the reply.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Request describes what to send to the LLM.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Response holds the LLM's output.
type Response struct {
	Content string
	Usage   Usage
	Model   string
}

// Usage is token accounting as reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	ReasoningTokens  int `json:"reasoning_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
