package chat

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"flux/internal/client"
	"flux/internal/db"
	"flux/internal/logging"
	"flux/internal/models"
)

const titleLimit = 50

// Manager owns conversation lifecycle and transcript persistence for one
// user. All reads and writes are scoped to that user.
type Manager struct {
	conn   *sql.DB
	userID string
}

// NewManager creates a conversation manager scoped to the given user.
func NewManager(conn *sql.DB, userID string) *Manager {
	return &Manager{conn: conn, userID: userID}
}

// GetOrCreate resumes an existing conversation by id, or starts a fresh one
// with a provisional title when the id is empty, unknown, or owned by another
// user. Unknown and foreign-owned ids are indistinguishable to the caller.
func (m *Manager) GetOrCreate(id string, mode models.Mode) (*models.Conversation, error) {
	if id != "" {
		conv, err := db.FindConversation(m.conn, id, m.userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		if conv != nil {
			return conv, nil
		}
		logging.Info("conversation did not resolve, starting fresh", "id", id)
	}

	title := fmt.Sprintf("New %s conversation", mode)
	conv, err := db.CreateConversation(m.conn, m.userID, mode, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	logging.Info("conversation created", "id", conv.ID, "mode", mode)
	return conv, nil
}

// AppendMessage persists one transcript entry. String content is stored as-is;
// anything else is serialized to its canonical JSON form so structured agent
// responses survive round-trips.
func (m *Manager) AppendMessage(conversationID, role string, content any) (*models.Message, error) {
	text, err := serializeContent(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message content: %w", err)
	}

	msg, err := db.InsertMessage(m.conn, conversationID, role, text)
	if err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	return msg, nil
}

func serializeContent(content any) (string, error) {
	switch v := content.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// History returns the conversation transcript as provider-neutral turns,
// re-read from storage so the caller always sees the persisted order.
func (m *Manager) History(conversationID string) ([]client.Turn, error) {
	msgs, err := db.ListMessages(m.conn, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	turns := make([]client.Turn, 0, len(msgs))
	for _, msg := range msgs {
		turns = append(turns, client.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns, nil
}

// DecodedMessage is a transcript entry with structured content restored.
type DecodedMessage struct {
	ID        string
	Role      string
	Content   any
	CreatedAt time.Time
}

// Messages returns the transcript with JSON content parsed back to its
// structured form, newest last. Content that does not parse stays a string.
func (m *Manager) Messages(conversationID string) ([]DecodedMessage, error) {
	msgs, err := db.ListMessages(m.conn, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	decoded := make([]DecodedMessage, 0, len(msgs))
	for _, msg := range msgs {
		decoded = append(decoded, DecodedMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   parseContent(msg.Content),
			CreatedAt: msg.CreatedAt,
		})
	}
	return decoded, nil
}

// parseContent inverts serializeContent: JSON objects and arrays come back as
// structured values, everything else (including malformed JSON) as the raw
// string.
func parseContent(text string) any {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return text
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return text
	}
	return v
}

// RenameIfFirstTurn derives the conversation title from the opening user
// message. Only the very first message triggers a rename; later turns leave
// the title alone.
func (m *Manager) RenameIfFirstTurn(conversationID, userMessage string) error {
	count, err := db.CountMessages(m.conn, conversationID)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}
	if count != 1 {
		return nil
	}

	title := userMessage
	if runes := []rune(title); len(runes) > titleLimit {
		title = string(runes[:titleLimit]) + "..."
	}
	if err := db.RenameConversation(m.conn, conversationID, title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}
	return nil
}

// List returns the user's conversations, newest first.
func (m *Manager) List(limit int) ([]models.ConversationListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.ListConversations(m.conn, m.userID, limit)
}

// Delete removes one of the user's conversations and its messages.
func (m *Manager) Delete(conversationID string) error {
	return db.DeleteConversation(m.conn, conversationID, m.userID)
}
