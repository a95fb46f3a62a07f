package types

import "strings"

// Roles understood by the chat completions endpoint
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message. Role may be absent on the wire.
type Message struct {
	Role    *string `json:"role,omitempty"`
	Content string  `json:"content"`
}

// NewMessage returns a message with the given role set
func NewMessage(role, content string) Message {
	return Message{Role: &role, Content: content}
}

// RoleName returns the role or an empty string when it is absent
func (m Message) RoleName() string {
	if m.Role == nil {
		return ""
	}
	return *m.Role
}

// ChatRequest represents the request body for chat completions
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Choice represents one candidate reply
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Usage holds the token counters reported by the endpoint
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse represents a non-streaming chat completion response.
// id, object and created are not guaranteed by the endpoint.
type ChatResponse struct {
	ID      *string  `json:"id,omitempty"`
	Object  *string  `json:"object,omitempty"`
	Created *int64   `json:"created,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Content returns the trimmed text of the first choice.
// ok is false when the response carries no choices.
func (r *ChatResponse) Content() (content string, ok bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), true
}
