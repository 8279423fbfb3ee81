package ui

import (
	"fmt"
	"strings"

	"flux/internal/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case spinner.TickMsg:
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Loading {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.KeyMsg:
		if m.ToolPickerOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "ctrl+t":
				m.ToolPickerOpen = false
				return m, nil
			case "up", "k":
				if len(m.ToolInfos) > 0 {
					m.ToolPickerIdx--
					if m.ToolPickerIdx < 0 {
						m.ToolPickerIdx = len(m.ToolInfos) - 1
					}
				}
				return m, nil
			case "down", "j":
				if len(m.ToolInfos) > 0 {
					m.ToolPickerIdx++
					if m.ToolPickerIdx >= len(m.ToolInfos) {
						m.ToolPickerIdx = 0
					}
				}
				return m, nil
			case " ", "tab":
				if len(m.ToolInfos) > 0 {
					id := m.ToolInfos[m.ToolPickerIdx].ID
					m.PendingEnabled[id] = !m.PendingEnabled[id]
				}
				return m, nil
			case "enter":
				var ids []string
				for _, info := range m.ToolInfos {
					if m.PendingEnabled[info.ID] {
						ids = append(ids, info.ID)
					}
				}
				m.Registry.SetEnabled(ids)
				m.ToolPickerOpen = false
				return m, nil
			}
			return m, nil
		}

		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "ctrl+s":
				m.ShortcutsOpen = false
				return m, nil
			}
			return m, nil
		}

		if isNewlineShortcut(msg) {
			m.TextInput.InsertString("\n")
			m.updateInputLayout()
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC:
			if m.CancelTurn != nil {
				m.CancelTurn()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.Loading && m.CancelTurn != nil {
				// Abort the in-flight turn but keep the session alive.
				m.CancelTurn()
				return m, nil
			}
			return m, tea.Quit

		case tea.KeyCtrlT:
			m.OpenToolPicker()
			return m, nil

		case tea.KeyCtrlN:
			return m, m.StartNewConversation()

		case tea.KeyCtrlS:
			m.ShortcutsOpen = true
			return m, nil

		case tea.KeyEnter:
			if m.Loading {
				return m, nil
			}
			input := strings.TrimSpace(m.TextInput.Value())
			if input == "" {
				return m, nil
			}

			if input == "exit" || input == "quit" {
				return m, tea.Quit
			}
			if input == "/clear" || input == "/reset" {
				return m, m.StartNewConversation()
			}

			m.Messages = append(m.Messages, FormatUserMessage(input, m.Viewport.Width, len(m.Messages) == 0))
			m.TextInput.Reset()
			m.updateInputLayout()
			m.Loading = true
			m.StreamBuf = ""
			m.ToolEvents = nil
			m.UpdateViewport()

			return m, tea.Batch(m.SendTurn(input), m.Spinner.Tick)
		}

	case StreamDeltaMsg:
		m.StreamBuf += msg.Delta
		m.UpdateViewport()
		return m, nil

	case ToolCallMsg:
		m.ToolEvents = append(m.ToolEvents, ToolEvent{
			Name:   msg.Name,
			Detail: TruncateRunes(msg.Args, ToolResultPreview),
			IsCall: true,
		})
		m.UpdateViewport()
		return m, nil

	case ToolResultMsg:
		m.ToolEvents = append(m.ToolEvents, ToolEvent{
			Name:   msg.Name,
			Detail: TruncateRunes(msg.Payload, ToolResultPreview),
		})
		m.UpdateViewport()
		return m, nil

	case TurnDoneMsg:
		m.Loading = false
		m.CancelTurn = nil

		if msg.Err != nil && msg.Result == nil {
			m.Err = msg.Err
			m.Messages = append(m.Messages, styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", msg.Err)))
			m.UpdateViewport()
			return m, nil
		}

		m.InputTokens += msg.Result.InputTokens
		m.OutputTokens += msg.Result.OutputTokens

		displayContent := msg.Result.Text
		if m.Renderer != nil {
			if rendered, err := m.Renderer.Render(msg.Result.Text); err == nil {
				displayContent = strings.TrimSpace(rendered)
			}
		}
		if len(m.ToolEvents) > 0 {
			m.Messages = append(m.Messages, FormatAssistantMessageWithTools(FormatToolEvents(m.ToolEvents), displayContent))
		} else {
			m.Messages = append(m.Messages, FormatAssistantMessage(displayContent))
		}
		m.ToolEvents = nil

		if msg.Err != nil {
			// Reply streamed fine but could not be persisted.
			m.Messages = append(m.Messages, styles.ErrorStyle.Render(fmt.Sprintf("History error: %v", msg.Err)))
		}
		m.UpdateViewport()
		return m, nil

	case NewConversationMsg:
		if msg.Err != nil {
			m.Messages = append(m.Messages, styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", msg.Err)))
			m.UpdateViewport()
			return m, nil
		}
		m.ConversationID = msg.ID
		m.Messages = []string{}
		m.StreamBuf = ""
		m.ToolEvents = nil
		m.InputTokens = 0
		m.OutputTokens = 0
		m.Err = nil
		m.TextInput.Reset()
		m.updateInputLayout()
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		m.Viewport.GotoTop()
		return m, nil

	case ErrMsg:
		m.Loading = false
		m.Err = msg
		m.Messages = append(m.Messages, styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", msg)))
		m.UpdateViewport()
		return m, nil

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		ModalWidth = msg.Width - 10
		if ModalWidth > ModalWidthMax {
			ModalWidth = ModalWidthMax
		}
		if ModalWidth < 30 {
			ModalWidth = 30
		}
		styles.ContentWidth = ModalWidth - 6

		chatWidth := msg.Width - 2
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.UpdateViewport()
		return m, tea.Batch(tiCmd, vpCmd)
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)
	m.updateInputLayout()

	// Filter out terminal background color queries that leak into the input
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "ctrl+enter", "alt+enter":
		return true
	default:
		return false
	}
}

// OpenToolPicker snapshots the registry into the picker's pending state so
// esc discards edits and only enter applies them.
func (m *Model) OpenToolPicker() {
	m.ToolInfos = m.Registry.List()
	m.PendingEnabled = make(map[string]bool, len(m.ToolInfos))
	for _, info := range m.ToolInfos {
		m.PendingEnabled[info.ID] = info.Enabled
	}
	m.ToolPickerIdx = 0
	m.ToolPickerOpen = true
	m.ShortcutsOpen = false
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	maxInputHeight := 6
	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > maxInputHeight {
		lineCount = maxInputHeight
	}

	m.TextInput.MaxHeight = maxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	reserved := inputBoxHeight + 5
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}
