package db

import (
	"database/sql"
	"time"

	"flux/internal/models"

	"github.com/google/uuid"
)

// Timestamps are stored as unix nanoseconds; messages with equal timestamps
// fall back to rowid so insertion order is preserved.

// CreateConversation inserts a new conversation for the given user.
func CreateConversation(conn *sql.DB, userID string, mode models.Mode, title string) (*models.Conversation, error) {
	now := time.Now()
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Mode:      mode,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := conn.Exec(
		"INSERT INTO conversations(id, user_id, mode, title, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)",
		conv.ID,
		conv.UserID,
		string(conv.Mode),
		conv.Title,
		now.UnixNano(),
		now.UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// FindConversation fetches a conversation by id, scoped to the owning user,
// with its full message history eagerly loaded. Returns (nil, nil) when no
// conversation matches both id and user: a conversation owned by someone else
// behaves exactly like a missing one.
func FindConversation(conn *sql.DB, id, userID string) (*models.Conversation, error) {
	var (
		conv      models.Conversation
		mode      string
		createdAt int64
		updatedAt int64
	)
	err := conn.QueryRow(
		"SELECT id, user_id, mode, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		id,
		userID,
	).Scan(&conv.ID, &conv.UserID, &mode, &conv.Title, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	conv.Mode = models.Mode(mode)
	conv.CreatedAt = time.Unix(0, createdAt)
	conv.UpdatedAt = time.Unix(0, updatedAt)

	msgs, err := ListMessages(conn, conv.ID)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return &conv, nil
}

// InsertMessage appends a message with a server-assigned timestamp.
func InsertMessage(conn *sql.DB, conversationID, role, content string) (*models.Message, error) {
	now := time.Now()
	msg := &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	_, err := conn.Exec(
		"INSERT INTO messages(id, conversation_id, role, content, created_at) VALUES(?, ?, ?, ?, ?)",
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		now.UnixNano(),
	)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		now.UnixNano(),
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a conversation's messages ordered ascending by
// creation time, ties broken by insertion order.
func ListMessages(conn *sql.DB, conversationID string) ([]models.Message, error) {
	rows, err := conn.Query(
		"SELECT id, conversation_id, role, content, created_at FROM messages WHERE conversation_id = ? ORDER BY created_at ASC, rowid ASC",
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			m         models.Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.Unix(0, createdAt)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountMessages returns the number of messages in a conversation.
func CountMessages(conn *sql.DB, conversationID string) (int, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ?",
		conversationID,
	).Scan(&count)
	return count, err
}

// RenameConversation sets a conversation's title.
func RenameConversation(conn *sql.DB, id, title string) error {
	_, err := conn.Exec(
		"UPDATE conversations SET title = ? WHERE id = ?",
		title,
		id,
	)
	return err
}

// ListConversations returns a user's conversations, newest first, with a
// preview of the most recent message.
func ListConversations(conn *sql.DB, userID string, limit int) ([]models.ConversationListItem, error) {
	rows, err := conn.Query(
		`SELECT c.id, c.title, c.mode, c.updated_at,
			COALESCE((SELECT content FROM messages m WHERE m.conversation_id = c.id ORDER BY m.created_at DESC, m.rowid DESC LIMIT 1), '')
		FROM conversations c WHERE c.user_id = ? ORDER BY c.updated_at DESC LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.ConversationListItem, 0, limit)
	for rows.Next() {
		var (
			it        models.ConversationListItem
			mode      string
			updatedAt int64
		)
		if err := rows.Scan(&it.ID, &it.Title, &mode, &updatedAt, &it.LastMessage); err != nil {
			return nil, err
		}
		it.Mode = models.Mode(mode)
		it.UpdatedAt = time.Unix(0, updatedAt)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteConversation removes a conversation and its messages, scoped to the
// owning user.
func DeleteConversation(conn *sql.DB, id, userID string) error {
	_, err := conn.Exec(
		"DELETE FROM conversations WHERE id = ? AND user_id = ?",
		id,
		userID,
	)
	return err
}
