package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"estoquechat/internal/conversation"
	"estoquechat/internal/render"
)

func (m model) View() string {
	sections := []string{m.renderHeader()}
	if m.ident.BannerVisible() {
		sections = append(sections, m.renderBanner())
	}
	body := m.theme.panel.Width(maxInt(40, m.width-4)).Render(m.timeline.View())
	if m.showHelp {
		body = m.renderHelp()
	}
	sections = append(sections, body)
	if len(m.toasts) > 0 {
		sections = append(sections, m.renderToasts())
	}
	sections = append(sections, m.renderInput(), m.renderFooter())
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)

	switch {
	case m.quitConfirm:
		out = m.renderModal("LEAVE PC-ESTOQUE?", []string{
			"Are you sure you want to quit?",
			"Unsent drafts are lost. Use /export to keep the conversation.",
		}, "[Y / Enter] Quit", "[N / Esc] Return")
	case m.clearConfirm:
		out = m.renderModal("CLEAR HISTORY?", []string{
			"This removes every message from the screen.",
			"The backend session is kept.",
		}, "[Y / Enter] Clear", "[N / Esc] Keep")
	case m.ident.IsOpen():
		out = m.placeModal(m.identifyPanel())
	}
	return m.theme.root.Render(out)
}

func (m *model) renderHeader() string {
	indicator := m.theme.helpText.Render("○ checking")
	switch m.online {
	case conversation.StateOnline:
		indicator = m.theme.online.Render("● online")
	case conversation.StateOffline:
		indicator = m.theme.offline.Render("● offline")
	}
	title := m.theme.title.Render("PC-Estoque Assistant")
	meta := m.theme.helpText.Render("session " + m.ctrl.Session().ID + " · theme " + string(m.themePref))
	line := title + "  " + indicator + "  " + meta
	return m.theme.header.Width(maxInt(40, m.width-4)).Render(line)
}

func (m *model) renderBanner() string {
	text := "Identify yourself with your seller id: Ctrl+O or /identificar. /dismiss hides this reminder."
	return m.theme.banner.Width(maxInt(40, m.width-4)).Render(text)
}

// renderPanes rebuilds the timeline content from the transcript and keeps
// the view pinned to the bottom unless the user scrolled up.
func (m *model) renderPanes() {
	atBottom := m.timeline.AtBottom()
	width := maxInt(20, m.timeline.Width-2)

	msgs := m.ctrl.Transcript().Messages()
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Fragment.Kind == render.KindAccessGranted {
			m.panelCommands = msg.Fragment.Commands()
		}
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, m.theme.helpText.Render("No messages yet. Identify with Ctrl+O, then try listar or estoque-baixo."))
	}
	m.timeline.SetContent(strings.Join(blocks, "\n\n"))
	if atBottom || m.busy {
		m.timeline.GotoBottom()
	}
}

func (m *model) renderMessage(msg conversation.Message, width int) string {
	label := m.theme.botLabel.Render("Bot")
	if msg.Sender == conversation.SenderUser {
		label = m.theme.userLabel.Render("You")
	}
	head := label + " " + m.theme.helpText.Render(msg.RenderedAt.Format("15:04:05"))

	if msg.Fragment.Kind == render.KindAccessGranted {
		return head + "\n" + m.renderWelcome(msg.Fragment, width)
	}
	text := strings.Join(msg.Fragment.Lines, "\n")
	style := lipgloss.NewStyle().Width(width)
	if msg.Sender == conversation.SenderBot && strings.HasPrefix(msg.Text, "❌") {
		style = m.theme.errorStatus.Width(width)
	}
	return head + "\n" + style.Render(text)
}

// renderWelcome numbers commands in Commands order so /cmd N can pick them.
func (m *model) renderWelcome(frag render.Fragment, width int) string {
	lines := []string{
		m.theme.accent.Render("ACCESS GRANTED"),
		"Welcome, " + m.theme.commandName.Render(frag.User) + "!",
	}
	n := 0
	section := func(title string, cmds []render.Command) {
		lines = append(lines, "", m.theme.panelTitle.Render(title))
		if len(cmds) == 0 {
			lines = append(lines, m.theme.helpText.Render("  (none)"))
		}
		for _, cmd := range cmds {
			n++
			line := fmt.Sprintf("  %2d. %s", n, m.theme.commandName.Render(cmd.Name))
			if cmd.Description != "" {
				line += m.theme.helpText.Render(" - " + cmd.Description)
			}
			lines = append(lines, line)
		}
	}
	section("Stock management", frag.Stock)
	section("System & reports", frag.System)
	lines = append(lines, "", m.theme.helpText.Render("Type /cmd <n> to insert a command."))
	return m.theme.welcome.Width(maxInt(20, width-2)).Render(strings.Join(lines, "\n"))
}

func (m *model) renderToasts() string {
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		style := m.theme.status
		switch t.notice.Level {
		case conversation.LevelError:
			style = m.theme.errorStatus
		case conversation.LevelWarning:
			style = m.theme.warnStatus
		case conversation.LevelSuccess:
			style = m.theme.successStatus
		}
		lines = append(lines, style.Render("▌ "+compactSingleLine(t.notice.Text, 160)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) renderInput() string {
	contentWidth := maxInt(40, m.width-4)
	inputView := m.input.View()
	if m.busy {
		inputView = m.spinner.View() + " waiting for reply... " + inputView
	}

	count, level := m.ctrl.CharCount()
	counter := strconv.Itoa(count) + "/" + strconv.Itoa(conversation.DefaultMaxMessageLength)
	switch level {
	case conversation.CharDanger:
		counter = m.theme.charDanger.Render(counter)
	case conversation.CharWarn:
		counter = m.theme.charWarn.Render(counter)
	default:
		counter = m.theme.helpText.Render(counter)
	}
	return m.theme.inputPanel.Width(contentWidth).Render(inputView + "  " + counter)
}

func (m *model) renderFooter() string {
	contentWidth := maxInt(40, m.width-4)
	statusStyle := m.theme.status
	lower := strings.ToLower(m.statusLine)
	if strings.Contains(lower, "failed") || strings.Contains(lower, "error") {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))

	quick := make([]string, len(quickCommands))
	for i, c := range quickCommands {
		quick[i] = fmt.Sprintf("Alt+%d %s", i+1, strings.TrimSpace(strings.TrimPrefix(c, "/")))
	}
	hints := m.theme.helpText.Render("Enter send · Ctrl+O identify · Ctrl+L clear · Ctrl+E export · Ctrl+T theme · PgUp/PgDn scroll · /help · Esc quit")
	return m.theme.footer.Width(contentWidth).Render(line + "\n" + hints + "\n" + m.theme.helpText.Render(strings.Join(quick, " · ")))
}

func (m *model) renderHelp() string {
	rows := []string{
		m.theme.panelTitle.Render("Commands"),
		"/identificar [id]   open the identification dialog, or send identificar <id>",
		"/cmd <n>            insert command n from the latest welcome panel",
		"/quick <n>          insert quick command n",
		"/export [dir]       save the conversation as text",
		"/clear              clear the history (asks first)",
		"/theme              cycle auto, light and dark",
		"/status             check the backend now",
		"/dismiss            hide the identification reminder",
		"/quit               leave",
		"",
		m.theme.helpText.Render("Messages are limited to 500 characters. Esc closes this panel."),
	}
	return m.theme.panel.Width(maxInt(40, m.width-4)).Height(maxInt(5, m.timeline.Height)).Render(strings.Join(rows, "\n"))
}

// rootPadLeft is the left padding of theme.root.
const rootPadLeft = 1

func (m *model) renderModal(title string, body []string, confirm, cancel string) string {
	return m.placeModal(m.modalPanel(title, body, confirm, cancel))
}

func (m *model) identifyPanel() string {
	return m.modalPanel("IDENTIFY", []string{
		"Enter your seller id to unlock the stock commands.",
		"",
		m.sellerInput.View(),
	}, "[Enter] Confirm", "[Esc] Cancel")
}

func (m *model) modalCanvas() (int, int) {
	return maxInt(40, m.width-4), maxInt(12, m.height-4)
}

func (m *model) modalPanel(title string, body []string, confirm, cancel string) string {
	canvasWidth, _ := m.modalCanvas()
	modalWidth := clampInt(int(float64(canvasWidth)*0.56), 42, 78)
	if modalWidth > canvasWidth-2 {
		modalWidth = canvasWidth - 2
	}

	accent := m.theme.accent.Render(strings.Repeat("=", maxInt(10, modalWidth-8)))
	lines := []string{m.theme.errorStatus.Render(title), "", accent}
	for _, line := range body {
		lines = append(lines, m.theme.helpText.Render(line))
	}
	lines = append(lines, accent, "", m.theme.pick.Render(confirm)+"    "+m.theme.helpText.Render(cancel))
	return m.theme.modalFrame.Width(modalWidth).Render(strings.Join(lines, "\n"))
}

func (m *model) placeModal(panel string) string {
	canvasWidth, canvasHeight := m.modalCanvas()
	return lipgloss.Place(
		canvasWidth,
		canvasHeight,
		lipgloss.Center,
		lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceBackground(m.theme.canvas),
	)
}

// insideModal reports whether screen cell x,y falls on panel as placeModal
// centers it.
func (m *model) insideModal(x, y int, panel string) bool {
	canvasWidth, canvasHeight := m.modalCanvas()
	w, h := lipgloss.Width(panel), lipgloss.Height(panel)
	left := rootPadLeft + maxInt(0, canvasWidth-w)/2
	top := maxInt(0, canvasHeight-h) / 2
	return x >= left && x < left+w && y >= top && y < top+h
}

func truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

func compactSingleLine(text string, limit int) string {
	compact := strings.Join(strings.Fields(text), " ")
	return truncate(compact, limit)
}

func nullCoalesce(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
