package models

// Role identifies the author of a ChatMessage.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// ChatMessage represents a single message in the outbound conversation.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint. Prompt is nil when
// the field is absent or null; any string, including "", is forwarded.
type ChatRequest struct {
	Prompt *string `json:"prompt"`
}

// ChatResponse is the reply relayed from the completion API.
type ChatResponse struct {
	Reply string `json:"reply"`
}
