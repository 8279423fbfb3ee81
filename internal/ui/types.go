package ui

import (
	"context"

	"flux/internal/chat"
	"flux/internal/models"
	"flux/internal/tools"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	ModalWidthMax = 60

	ToolResultPreview = 120 // Max chars of a tool payload shown inline
)

const ChatSystemPrompt = `You are Flux, a helpful AI assistant running in the terminal. You engage in natural conversation, answer questions, explain concepts, and help with general tasks. You provide clear, concise, and accurate responses. When tools are active you may use them; cite what they returned rather than guessing.`

// ModalWidth is resized with the window.
var ModalWidth = ModalWidthMax

type ErrMsg error

// StreamDeltaMsg carries one text delta from the model.
type StreamDeltaMsg struct {
	Delta string
}

// ToolCallMsg announces a tool invocation observed mid-stream.
type ToolCallMsg struct {
	Name string
	Args string
}

// ToolResultMsg announces a tool payload observed mid-stream.
type ToolResultMsg struct {
	Name    string
	Payload string
}

// TurnDoneMsg is the terminal message for one turn, success or failure.
type TurnDoneMsg struct {
	Result *chat.TurnResult
	Err    error
}

// ToolEvent is a completed tool call/result pair shown with the response.
type ToolEvent struct {
	Name   string
	Detail string
	IsCall bool
}

// Model is the bubbletea state for an interactive chat session.
type Model struct {
	Viewport  viewport.Model
	Messages  []string
	TextInput textarea.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer

	Orchestrator *chat.Orchestrator
	Manager      *chat.Manager
	Registry     *tools.Registry

	ConversationID string
	Mode           models.Mode

	Loading      bool
	StreamBuf    string // Text streamed so far for the in-flight turn
	ToolEvents   []ToolEvent
	Err          error
	InputTokens  int
	OutputTokens int

	WindowWidth  int
	WindowHeight int

	// Tool picker modal
	ToolPickerOpen bool
	ToolPickerIdx  int
	ToolInfos      []tools.Info
	PendingEnabled map[string]bool

	ShortcutsOpen bool

	// CancelTurn aborts the in-flight turn when the user presses esc.
	CancelTurn context.CancelFunc

	Program *tea.Program
}
