package store

import (
	"context"
	"strings"

	"chatcore/internal/fault"
	"chatcore/internal/models"

	"github.com/google/uuid"
)

// SaveMessage appends one immutable message to a conversation. It does not
// advance the conversation's updated_at; that is the orchestrator's call via
// TouchConversation, which keeps the two primitives independently testable.
func (s *Store) SaveMessage(ctx context.Context, conversationID string, role models.Role, content string) (*models.Message, error) {
	if !role.Valid() {
		return nil, &fault.ValidationError{Field: "role", Reason: "must be user or assistant"}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &fault.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	unlock := s.lockConversation(conversationID)
	defer unlock()

	if err := s.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := s.nextStamp(conversationID)
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`),
		id, conversationID, role, content, now,
	)
	if err != nil {
		return nil, storageErr("save message", err)
	}
	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// GetMessages returns the full ordered history of a conversation, oldest
// first. An existing conversation with no messages yields an empty slice.
func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if err := s.conversationExists(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`),
		conversationID,
	)
	if err != nil {
		return nil, storageErr("list messages", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, storageErr("scan message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list messages", err)
	}
	return messages, nil
}
