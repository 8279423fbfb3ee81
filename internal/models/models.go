package models

import "time"

// Mode is the operating mode of a conversation.
type Mode string

const (
	ModeChat  Mode = "chat"  // Plain conversation without tools
	ModeTool  Mode = "tool"  // Conversation with model-invoked tools
	ModeAgent Mode = "agent" // Structured project generation
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Conversation is a persisted multi-turn exchange owned by a single user.
type Conversation struct {
	ID        string
	UserID    string
	Mode      Mode
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}

// Message is one entry in a conversation transcript. Immutable once stored.
// Content holds either plain text or the canonical JSON form of a structured
// payload; ordering is by CreatedAt with insertion order breaking ties.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// ConversationListItem is a lightweight row for conversation listings.
type ConversationListItem struct {
	ID          string
	Title       string
	Mode        Mode
	UpdatedAt   time.Time
	LastMessage string
}

// ToolCall records a tool invocation observed while streaming a turn.
// Ephemeral: folded into the turn result for display, never stored.
type ToolCall struct {
	Name string
	Args string
}

// ToolResult records the payload a tool produced. The full payload feeds the
// model's reasoning; display may truncate it.
type ToolResult struct {
	Name    string
	Payload string
}

// ProjectFile is one generated file in an agent-mode project description.
type ProjectFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// ApplicationDescriptor is the schema-validated output of agent mode.
// Every path must be relative and unique; consumed once by the materializer.
type ApplicationDescriptor struct {
	FolderName    string        `json:"folderName"`
	Description   string        `json:"description"`
	Files         []ProjectFile `json:"files"`
	SetupCommands []string      `json:"setupCommands"`
}
