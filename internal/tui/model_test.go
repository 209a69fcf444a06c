package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/composer"
	"github.com/vovakirdan/simplechat/internal/proto"
)

type fakeSession struct {
	events chan proto.Outbound
}

func (s *fakeSession) Events() <-chan proto.Outbound { return s.events }

func newTestModel(t *testing.T, opts Options) (*Model, *chatstore.Store) {
	t.Helper()

	st := chatstore.New(t.Context(), nil, "general", nil)
	t.Cleanup(st.Close)

	if opts.Identity.Username == "" {
		opts.Identity = composer.Identity{Username: "alice"}
	}
	opts.Store = st
	m, err := New(opts)
	require.NoError(t, err)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return m, st
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func pressEnter(m *Model) {
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func pressAltEnter(m *Model) {
	m.Update(tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
}

func TestNewRequiresIdentityAndStore(t *testing.T) {
	_, err := New(Options{Identity: composer.Identity{Username: "alice"}})
	assert.ErrorIs(t, err, composer.ErrNilStore)

	st := chatstore.New(t.Context(), nil, "general", nil)
	t.Cleanup(st.Close)
	_, err = New(Options{Store: st})
	assert.ErrorIs(t, err, composer.ErrMissingIdentity)
}

func TestEnterSubmitsAndClears(t *testing.T) {
	m, st := newTestModel(t, Options{})

	typeText(m, "Hello")
	assert.Equal(t, composer.Composing, m.Composer().State())

	pressEnter(m)

	msgs := st.Messages("general")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", msgs[0].Record.Content)
	assert.Equal(t, "alice", msgs[0].Record.Sender.Username)
	assert.Empty(t, m.textarea.Value())
	assert.Equal(t, composer.Idle, m.Composer().State())
	assert.Equal(t, 1, m.textarea.Height())
}

func TestEnterOnBlankDraftIsSuppressed(t *testing.T) {
	m, st := newTestModel(t, Options{})

	typeText(m, "   ")
	pressEnter(m)

	assert.Empty(t, st.Messages("general"))
	assert.Equal(t, "   ", m.textarea.Value(), "no newline is inserted")
}

func TestModifiedEnterInsertsNewline(t *testing.T) {
	m, st := newTestModel(t, Options{})

	typeText(m, "Line1")
	pressAltEnter(m)
	typeText(m, "Line2")
	assert.Equal(t, "Line1\nLine2", m.textarea.Value())
	assert.Equal(t, 2, m.textarea.Height())

	pressEnter(m)
	msgs := st.Messages("general")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Line1\nLine2", msgs[0].Record.Content)
}

func TestCtrlJActsAsModifiedEnter(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	// blank drafts swallow the modified key too
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Empty(t, m.textarea.Value())

	typeText(m, "a")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	assert.Equal(t, "a\n", m.textarea.Value())
}

func TestInputGrowsUpToMaxRows(t *testing.T) {
	m, _ := newTestModel(t, Options{MaxInputRows: 4})

	typeText(m, "x")
	for range 10 {
		pressAltEnter(m)
		typeText(m, "x")
	}

	assert.Equal(t, 4, m.Composer().Height())
	assert.Equal(t, 4, m.textarea.Height())
	assert.True(t, m.Composer().Scrollable())

	pressEnter(m)
	assert.Equal(t, 1, m.textarea.Height())
}

func TestInputGrowsWithWordWrap(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	m.Update(tea.WindowSizeMsg{Width: 20 + m.sendWidth, Height: 30})
	require.Equal(t, 18, m.textarea.Width())

	typeText(m, "aaaaaaaaaa bbbbbbbbbb cccccccccc")

	assert.Equal(t, 3, m.Composer().Height())
	assert.Equal(t, 3, m.textarea.Height())
	assert.False(t, m.Composer().Scrollable())
	view := m.textarea.View()
	for _, word := range []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"} {
		assert.Contains(t, view, word)
	}
}

func TestPasteKeepsNewlines(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("one\ntwo\nthree"), Paste: true})
	assert.Equal(t, "one\ntwo\nthree", m.Composer().Draft())
	assert.Equal(t, 3, m.textarea.Height())
}

func TestLogRendersMessages(t *testing.T) {
	m, st := newTestModel(t, Options{})

	st.Receive(chatstore.Inbound{
		ServerID: 1,
		Room:     "general",
		Record: composer.MessageRecord{
			Content:   "first line\nsecond line",
			Sender:    composer.Sender{Username: "bob"},
			CreatedAt: "2024-05-01T10:00:00.000Z",
		},
	})
	typeText(m, "hi bob")
	pressEnter(m)
	m.Update(storeChangedMsg{})

	out := m.renderLog()
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
	assert.Contains(t, out, "hi bob")
	assert.Contains(t, m.View(), "#general")

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "["), "line starts with a timestamp: %q", lines[0])
}

func TestMarkdownRendering(t *testing.T) {
	m, st := newTestModel(t, Options{Markdown: true})
	require.NotNil(t, m.renderer)

	st.Receive(chatstore.Inbound{
		ServerID: 1,
		Room:     "general",
		Record: composer.MessageRecord{
			Content:   "**bold** move",
			Sender:    composer.Sender{Username: "bob"},
			CreatedAt: "2024-05-01T10:00:00.000Z",
		},
	})
	out := m.renderLog()
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, "move")
}

func TestServerEvents(t *testing.T) {
	sess := &fakeSession{events: make(chan proto.Outbound, 1)}
	m, st := newTestModel(t, Options{Session: sess})

	msg, err := proto.NewEvent(proto.EventNameMessage, proto.EventMessage{ID: 9, Room: "general", User: "bob", Text: "yo", CreatedAt: "2024-05-01T10:00:00.000Z"})
	require.NoError(t, err)
	_, cmd := m.Update(serverEventMsg{out: msg})
	assert.NotNil(t, cmd, "keeps listening")
	require.Len(t, st.Messages("general"), 1)

	joined, err := proto.NewEvent(proto.EventNameUserJoined, proto.EventUserJoined{Room: "general", User: "carol"})
	require.NoError(t, err)
	m.Update(serverEventMsg{out: joined})
	assert.Equal(t, "carol joined general", m.Status())

	m.Update(serverEventMsg{out: proto.NewError("rate_limited", "too many messages")})
	assert.Contains(t, m.Status(), "too many messages")
	assert.True(t, m.failed)

	close(sess.events)
	got := waitForSession(sess)()
	assert.IsType(t, sessionClosedMsg{}, got)
	m.Update(got)
	assert.Contains(t, m.Status(), "disconnected")
}

func TestSendButton(t *testing.T) {
	m, st := newTestModel(t, Options{})

	// idle drafts are never sent, whatever the trigger
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Empty(t, st.Messages("general"))
	assert.Contains(t, m.View(), sendLabel)

	typeText(m, "via ctrl+s")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Len(t, st.Messages("general"), 1)
	assert.Empty(t, m.textarea.Value())

	typeText(m, "via button")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.sendFocused)
	assert.False(t, m.textarea.Focused())
	pressEnter(m)

	msgs := st.Messages("general")
	require.Len(t, msgs, 2)
	assert.Equal(t, "via button", msgs[1].Record.Content)
	assert.Empty(t, m.textarea.Value())
	assert.Equal(t, 1, m.textarea.Height())

	// typing while the button is focused goes back to the input
	typeText(m, "x")
	assert.False(t, m.sendFocused)
	assert.Equal(t, "x", m.textarea.Value())
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
