package ui

import (
	"flux/internal/chat"
	"flux/internal/models"
	"flux/internal/tools"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SessionDeps is everything a chat session needs from the command layer.
type SessionDeps struct {
	Orchestrator   *chat.Orchestrator
	Manager        *chat.Manager
	Registry       *tools.Registry
	ConversationID string
	Mode           models.Mode
}

func InitialModel(deps SessionDeps) Model {
	ti := textarea.New()
	ti.Placeholder = "Type a message... (\"exit\" to quit)"
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 0
	ti.MaxHeight = 6
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#80CBC4")).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#80CBC4")).Bold(true)
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#80CBC4"))

	vp := viewport.New(60, 15)

	return Model{
		TextInput:      ti,
		Viewport:       vp,
		Spinner:        sp,
		Orchestrator:   deps.Orchestrator,
		Manager:        deps.Manager,
		Registry:       deps.Registry,
		ConversationID: deps.ConversationID,
		Mode:           deps.Mode,
		Messages:       []string{},
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.TextInput.Cursor.BlinkCmd(),
		m.Spinner.Tick,
	)
}

// NewProgram builds the bubbletea program and hands the model a reference so
// stream events can be pushed in from the orchestrator goroutine.
func NewProgram(deps SessionDeps) *tea.Program {
	m := InitialModel(deps)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	m.Program = p
	return p
}
