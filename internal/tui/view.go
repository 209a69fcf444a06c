package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/composer"
)

const (
	hintText  = "Enter/Ctrl+S send · Tab send button · Alt+Enter/Ctrl+J newline · PgUp/PgDn scroll · Esc quit"
	sendLabel = "➤ Send"
)

// View renders the screen.
func (m *Model) View() string {
	header := m.styles.header.Render("#" + m.store.Room() + "  as " + m.composer.Identity().Username)

	statusStyle := m.styles.status
	if m.failed {
		statusStyle = m.styles.errStatus
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		statusStyle.Render(m.status),
		lipgloss.JoinHorizontal(lipgloss.Bottom, m.textarea.View(), m.renderSend()),
		m.styles.hint.Render(hintText),
	)
}

// renderSend draws the send button: highlighted when focused, dimmed while the
// draft cannot be submitted.
func (m *Model) renderSend() string {
	switch {
	case m.sendFocused:
		return m.styles.sendFocused.Render(sendLabel)
	case m.composer.State() == composer.Idle:
		return m.styles.sendIdle.Render(sendLabel)
	default:
		return m.styles.send.Render(sendLabel)
	}
}

func (m *Model) renderLog() string {
	entries := m.store.Messages(m.store.Room())
	if len(entries) == 0 {
		return m.styles.status.Render("No messages yet.")
	}

	self := m.composer.Identity().Username
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.renderEntry(e, e.Record.Sender.Username == self))
	}
	return strings.Join(lines, "\n")
}

// renderEntry formats one message as "[15:04] username: content".
func (m *Model) renderEntry(e chatstore.Entry, own bool) string {
	stamp := "--:--"
	if t, err := composer.ParseCreatedAt(e.Record.CreatedAt); err == nil {
		stamp = t.Local().Format("15:04")
	}

	name := m.styles.peer.Render(e.Record.Sender.Username)
	if own {
		name = m.styles.self.Render(e.Record.Sender.Username)
	}

	prefix := m.styles.timestamp.Render("["+stamp+"]") + " " + name + ": "
	body := m.renderContent(e.Record.Content, lipgloss.Width(prefix))

	switch e.Status {
	case chatstore.StatusPending:
		body += " " + m.styles.pending.Render("(sending)")
	case chatstore.StatusFailed:
		body += " " + m.styles.failed.Render("(failed: "+e.Err+")")
	}
	return prefix + body
}

// renderContent aligns continuation lines under the first one.
func (m *Model) renderContent(content string, indent int) string {
	if m.renderer != nil {
		if out, err := m.renderer.Render(content); err == nil {
			content = strings.Trim(out, "\n")
			content = strings.TrimLeft(content, " ")
		}
	}
	return strings.ReplaceAll(content, "\n", "\n"+strings.Repeat(" ", indent))
}
