package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/conversation"
	"github.com/Strob0t/PlanForge/internal/port/database"
)

// ConversationContext resolves conversations and reads and extends their
// message history. Every method takes the Store to run against, so callers
// decide whether the work joins a transaction.
type ConversationContext struct{}

// Resolve returns the conversation to use for a chat turn. A nil id creates
// a new empty conversation in the project. A given id must exist and belong
// to the project, otherwise the result is domain.ErrNotFound.
func (ConversationContext) Resolve(ctx context.Context, store database.Store, projectID int64, conversationID *int64) (*conversation.Conversation, error) {
	if conversationID == nil {
		conv, err := store.CreateConversation(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("start conversation: %w", err)
		}
		return conv, nil
	}

	conv, err := store.GetConversation(ctx, *conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ProjectID != projectID {
		return nil, fmt.Errorf("conversation %d in project %d: %w", *conversationID, projectID, domain.ErrNotFound)
	}
	return conv, nil
}

// RecentWindow returns at most limit of the newest messages, oldest first.
// A non-positive limit falls back to conversation.DefaultWindow.
func (ConversationContext) RecentWindow(ctx context.Context, store database.Store, conversationID int64, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = conversation.DefaultWindow
	}
	msgs, err := store.ListRecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}

// Append stores a new message in the conversation.
func (ConversationContext) Append(ctx context.Context, store database.Store, conv *conversation.Conversation, role conversation.Role, content string) (*conversation.Message, error) {
	msg, err := store.CreateMessage(ctx, conv.ID, role, content)
	if err != nil {
		return nil, fmt.Errorf("append %s message: %w", role, err)
	}
	return msg, nil
}

// History loads every conversation of the project, oldest first, with its
// messages attached.
func (ConversationContext) History(ctx context.Context, store database.Store, projectID int64) ([]conversation.Conversation, error) {
	convs, err := store.ListConversations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	for i := range convs {
		msgs, err := store.ListMessages(ctx, convs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list messages of conversation %d: %w", convs[i].ID, err)
		}
		convs[i].Messages = msgs
	}
	return convs, nil
}
