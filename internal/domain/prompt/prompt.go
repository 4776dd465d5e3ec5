// Package prompt assembles the message sequences sent to the model for chat
// turns and plan extraction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Strob0t/PlanForge/internal/domain/conversation"
)

// HistoryPlaceholder is replaced in the extraction template with the
// project context followed by the conversation history.
const HistoryPlaceholder = "{{conversation_history}}"

// Role is a model-facing message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a model request.
type Message struct {
	Role    Role
	Content string
}

// ForChat builds the messages for a chat turn: the template and project
// snapshot as one system message, the recent history in order, and the new
// user message last. History entries with a role outside USER, ASSISTANT
// and SYSTEM are dropped.
func ForChat(tmpl, snapshot string, history []conversation.Message, newMessage string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: tmpl + snapshot})
	for i := range history {
		role, ok := mapRole(history[i].Role)
		if !ok {
			continue
		}
		msgs = append(msgs, Message{Role: role, Content: history[i].Content})
	}
	return append(msgs, Message{Role: RoleUser, Content: newMessage})
}

// ForExtraction builds the single system message for plan extraction.
func ForExtraction(tmpl, projectContext, history string) []Message {
	content := strings.ReplaceAll(tmpl, HistoryPlaceholder, projectContext+"\n\n"+history)
	return []Message{{Role: RoleSystem, Content: content}}
}

// RenderHistory concatenates conversations in the given order, each under
// an id header with one "ROLE: content" line per message. Conversations
// without messages are skipped.
func RenderHistory(convs []conversation.Conversation) string {
	var b strings.Builder
	for i := range convs {
		if len(convs[i].Messages) == 0 {
			continue
		}
		fmt.Fprintf(&b, "=== Conversation %d ===\n", convs[i].ID)
		for _, m := range convs[i].Messages {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func mapRole(r conversation.Role) (Role, bool) {
	switch r {
	case conversation.RoleUser:
		return RoleUser, true
	case conversation.RoleAssistant:
		return RoleAssistant, true
	case conversation.RoleSystem:
		return RoleSystem, true
	default:
		return "", false
	}
}
