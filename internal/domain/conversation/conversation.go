// Package conversation holds the chat threads used to derive a project plan.
package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// Role tags who authored a message.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleSystem    Role = "SYSTEM"
)

// DefaultWindow is the number of recent messages sent with a chat turn.
const DefaultWindow = 10

// Conversation is a chat thread tied to a project.
type Conversation struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single immutable turn in a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId,omitempty"`
}

// ChatResponse is returned after a successful chat turn.
type ChatResponse struct {
	ConversationID   int64  `json:"conversationId"`
	UserMessage      string `json:"userMessage"`
	AssistantMessage string `json:"assistantMessage"`
}

// Validate checks that the chat message is usable.
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message is required: %w", domain.ErrValidation)
	}
	if strings.ContainsRune(r.Message, 0) {
		return fmt.Errorf("message contains NUL characters: %w", domain.ErrValidation)
	}
	return nil
}
