package ui

import (
	"fmt"
	"strings"

	"flux/internal/models"
	"flux/internal/styles"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) RenderToolPicker() string {
	title := styles.ModalTitleStyle.Render("Tools")

	var items []string
	for i, info := range m.ToolInfos {
		check := "[ ]"
		if m.PendingEnabled[info.ID] {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s", check, info.Name)
		if i == m.ToolPickerIdx {
			items = append(items, styles.ModalSelectedStyle.Render(line))
			desc := lipgloss.NewStyle().
				Foreground(styles.HintColor).
				Width(styles.ContentWidth).
				PaddingLeft(5).
				Render(info.Description)
			items = append(items, desc)
		} else {
			items = append(items, styles.ModalItemStyle.Render(line))
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, items...)
	content := lipgloss.JoinVertical(lipgloss.Left, title, body)

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("↑/↓: navigate • Space: toggle • Enter: apply • Esc: cancel")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Ctrl+C", "Quit"},
		{"Esc", "Cancel response / quit"},
		{"Ctrl+N", "New conversation"},
		{"Ctrl+T", "Toggle tools"},
		{"Ctrl+S", "View shortcuts (this menu)"},
		{"exit", "Quit (typed as a message)"},
	}

	var items []string
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCC80")).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E0E0E0"))

	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), descStyle.Render(s.desc))
		items = append(items, styles.ModalItemStyle.Render(line))
	}

	listContent := lipgloss.JoinVertical(lipgloss.Left, items...)
	content := lipgloss.JoinVertical(lipgloss.Left, title, listContent)

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderBottomBar() string {
	modeBadge := strings.ToUpper(string(m.Mode))
	modeColor := "#81D4FA"
	if m.Mode == models.ModeTool {
		modeColor = "#CE93D8"
	}
	mode := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(modeColor)).
		Padding(0, 1).
		Render(modeBadge)

	toolsDisplay := "tools: off"
	if names := m.Registry.EnabledNames(); len(names) > 0 {
		toolsDisplay = "tools: " + strings.Join(names, ", ")
	}
	toolsInfo := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(TruncateRunes(toolsDisplay, 50))

	convInfo := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render("conv: " + TruncateRunes(m.ConversationID, 8))

	tokens := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render(fmt.Sprintf("In:%d Out:%d", m.InputTokens, m.OutputTokens))

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^S")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, mode, "  ", toolsInfo)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, convInfo, "  ", tokens, "  ", help)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int) string {
	art := `
 ╭─────────────────────────────────────────────╮
 │                                             │
 │   ███████╗██╗     ██╗   ██╗██╗  ██╗         │
 │   ██╔════╝██║     ██║   ██║╚██╗██╔╝         │
 │   █████╗  ██║     ██║   ██║ ╚███╔╝          │
 │   ██╔══╝  ██║     ██║   ██║ ██╔██╗          │
 │   ██║     ███████╗╚██████╔╝██╔╝ ██╗         │
 │   ╚═╝     ╚══════╝ ╚═════╝ ╚═╝  ╚═╝         │
 │                                             │
 ╰─────────────────────────────────────────────╯
`
	subtitle := "A CLI-based AI assistant"

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Italic(true).Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) UpdateViewport() {
	if len(m.Messages) == 0 && !m.Loading {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	content := strings.Join(m.Messages, "\n\n")
	if m.Loading {
		var loadingParts []string
		loadingParts = append(loadingParts, styles.AssistantLabelStyle.Render("FLUX"))

		if len(m.ToolEvents) > 0 {
			loadingParts = append(loadingParts, FormatToolEvents(m.ToolEvents))
		}

		if m.StreamBuf != "" {
			// Show raw streamed text; markdown rendering waits for the full
			// response.
			loadingParts = append(loadingParts, styles.AssistantMsgStyle.Render(m.StreamBuf))
		} else {
			loadingParts = append(loadingParts, fmt.Sprintf("%s Thinking...", m.Spinner.View()))
		}

		loadingMsg := strings.Join(loadingParts, "\n")
		if len(m.Messages) > 0 {
			content = content + "\n\n" + loadingMsg
		} else {
			content = loadingMsg
		}
	}
	m.Viewport.SetContent(content)
	m.Viewport.GotoBottom()
}

func (m *Model) View() string {
	inputWidth := m.WindowWidth - 4
	inputBox := styles.InputBoxStyle.Width(inputWidth).Render(m.TextInput.View())

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		styles.TitleStyle.Render("FLUX"),
		"",
		m.Viewport.View(),
		"",
		inputBox,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	bottomBar := m.RenderBottomBar()

	content := lipgloss.JoinVertical(lipgloss.Left, chatArea, bottomBar)

	if m.ToolPickerOpen {
		modal := styles.ModalStyle.Width(ModalWidth).Render(m.RenderToolPicker())
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, modal)
	}

	if m.ShortcutsOpen {
		modal := styles.ModalStyle.Width(ModalWidth).Render(m.RenderShortcutsModal())
		return lipgloss.Place(m.WindowWidth, m.WindowHeight, lipgloss.Center, lipgloss.Center, modal)
	}

	return content
}
