package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/simplechat/internal/composer"
)

// composerKey maps a terminal key to the composer's vocabulary. Terminals do not
// report Shift+Enter, so Alt+Enter and Ctrl+J stand in for the modified Enter.
func composerKey(msg tea.KeyMsg) (key composer.Key, modified bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return composer.KeyEnter, msg.Alt
	case tea.KeyCtrlJ:
		return composer.KeyEnter, true
	default:
		return composer.KeyOther, false
	}
}
