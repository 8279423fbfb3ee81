package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flux/internal/chat"
	"flux/internal/client"
	"flux/internal/models"
	"flux/internal/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// NewConversationMsg reports the outcome of starting a fresh conversation.
type NewConversationMsg struct {
	ID  string
	Err error
}

// SendTurn runs one orchestrated turn in the background. Stream events are
// pushed into the program as they arrive; the command's own return value is
// the terminal TurnDoneMsg.
func (m *Model) SendTurn(input string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.CancelTurn = cancel

	p := m.Program
	events := &chat.TurnEvents{
		OnText: func(delta string) {
			if p != nil {
				p.Send(StreamDeltaMsg{Delta: delta})
			}
		},
		OnToolCall: func(tc models.ToolCall) {
			if p != nil {
				p.Send(ToolCallMsg{Name: tc.Name, Args: tc.Args})
			}
		},
		OnToolResult: func(tr models.ToolResult) {
			if p != nil {
				p.Send(ToolResultMsg{Name: tr.Name, Payload: tr.Payload})
			}
		},
	}

	orchestrator := m.Orchestrator
	conversationID := m.ConversationID

	return func() tea.Msg {
		defer cancel()
		result, err := orchestrator.RunTurn(ctx, conversationID, input, events)
		if err != nil && client.IsCancellation(err) {
			return TurnDoneMsg{Result: &chat.TurnResult{Text: "(cancelled)"}, Err: nil}
		}
		return TurnDoneMsg{Result: result, Err: err}
	}
}

// StartNewConversation creates a fresh conversation in the current mode.
func (m *Model) StartNewConversation() tea.Cmd {
	manager := m.Manager
	mode := m.Mode
	return func() tea.Msg {
		conv, err := manager.GetOrCreate("", mode)
		if err != nil {
			return NewConversationMsg{Err: err}
		}
		return NewConversationMsg{ID: conv.ID}
	}
}

func FormatUserMessage(content string, width int, isFirst bool) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(content)
	if isFirst {
		return fmt.Sprintf("\n%s\n%s", label, msg)
	}
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAssistantMessage(content string) string {
	label := styles.AssistantLabelStyle.Render("FLUX")
	msg := styles.AssistantMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAssistantMessageWithTools(toolDisplay, content string) string {
	label := styles.AssistantLabelStyle.Render("FLUX")
	msg := styles.AssistantMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s\n%s", label, toolDisplay, msg)
}

func FormatToolEvents(events []ToolEvent) string {
	var lines []string
	for _, ev := range events {
		icon := styles.ToolIconStyle.Render("→")
		verb := "returned"
		if ev.IsCall {
			verb = "called"
		}
		name := styles.ToolNameStyle.Render(ev.Name)
		detail := styles.ToolDetailStyle.Render(ev.Detail)
		lines = append(lines, styles.ToolActionStyle.Render(fmt.Sprintf("%s %s %s %s", icon, name, verb, detail)))
	}
	return strings.Join(lines, "\n")
}

func PromptPreview(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	const maxRunes = 500
	r := []rune(s)
	if len(r) > maxRunes {
		return string(r[:maxRunes])
	}
	return s
}

func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

func RelativeTime(t time.Time) string {
	d := time.Since(t)
	if d < 0 {
		d = -d
	}
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	}
	if d < 24*time.Hour {
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hrs ago", hrs)
	}
	days := int(d.Hours() / 24)
	if days < 14 {
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	weeks := days / 7
	if weeks == 1 {
		return "1 week ago"
	}
	return fmt.Sprintf("%d weeks ago", weeks)
}

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}
