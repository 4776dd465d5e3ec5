package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/PlanForge/internal/domain/conversation"
)

func (s *Store) CreateConversation(ctx context.Context, projectID int64) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.db.QueryRow(ctx,
		`INSERT INTO conversations (project_id) VALUES ($1)
		 RETURNING id, project_id, created_at`,
		projectID,
	).Scan(&c.ID, &c.ProjectID, &c.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "create conversation in project %d", projectID)
	}
	return &c, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.db.QueryRow(ctx,
		`SELECT id, project_id, created_at FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.ProjectID, &c.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation %d", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, projectID int64) ([]conversation.Conversation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, project_id, created_at FROM conversations
		 WHERE project_id = $1 ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, c)
	}
	return orEmpty(result), rows.Err()
}

func (s *Store) CreateMessage(ctx context.Context, conversationID int64, role conversation.Role, content string) (*conversation.Message, error) {
	var m conversation.Message
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content) VALUES ($1, $2, $3)
		 RETURNING id, conversation_id, role, content, created_at`,
		conversationID, role, content,
	).Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "create message in conversation %d", conversationID)
	}
	return &m, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]conversation.Message, error) {
	return s.queryMessages(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at, id`,
		conversationID)
}

func (s *Store) ListRecentMessages(ctx context.Context, conversationID int64, limit int) ([]conversation.Message, error) {
	return s.queryMessages(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		conversationID, limit)
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]conversation.Message, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return orEmpty(msgs), rows.Err()
}
