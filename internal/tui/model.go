// Package tui is the terminal chat client: a message log above a composer that
// grows with its draft.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/client"
	"github.com/vovakirdan/simplechat/internal/composer"
	"github.com/vovakirdan/simplechat/internal/proto"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// header, status and hint lines
	chromeLines = 3
)

// Session is the live connection the model listens to.
type Session interface {
	Events() <-chan proto.Outbound
}

// Options configures a Model.
type Options struct {
	Identity composer.Identity
	Store    *chatstore.Store
	// Session may be nil; the model then only shows the local log.
	Session      Session
	MaxInputRows int
	Markdown     bool
	Logger       *zerolog.Logger
}

type (
	storeChangedMsg  struct{}
	storeClosedMsg   struct{}
	serverEventMsg   struct{ out proto.Outbound }
	sessionClosedMsg struct{}
)

// Model is the bubbletea model of the chat screen.
type Model struct {
	composer *composer.Composer
	store    *chatstore.Store
	storeSub <-chan struct{}
	session  Session
	log      *zerolog.Logger

	textarea textarea.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer
	markdown bool
	styles   styles

	sendWidth   int
	sendFocused bool

	width  int
	height int
	status string
	failed bool
}

// New builds the chat screen for identity, posting to opts.Store.
func New(opts Options) (*Model, error) {
	if opts.Store == nil {
		return nil, composer.ErrNilStore
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	rows := opts.MaxInputRows
	if rows <= 0 {
		rows = composer.DefaultMaxHeight
	}

	st := defaultStyles()
	sendWidth := lipgloss.Width(st.send.Render(sendLabel))

	ta := textarea.New()
	ta.Placeholder = "Write a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = rows
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(defaultWidth - sendWidth)
	ta.Focus()

	c, err := composer.New(opts.Identity, opts.Store,
		composer.WithMaxHeight(rows),
		composer.WithWidth(ta.Width()),
		composer.WithRowCounter(textareaRows),
	)
	if err != nil {
		return nil, err
	}

	m := &Model{
		composer:  c,
		store:     opts.Store,
		storeSub:  opts.Store.Subscribe(),
		session:   opts.Session,
		log:       logger,
		textarea:  ta,
		viewport:  viewport.New(defaultWidth, defaultHeight),
		markdown:  opts.Markdown,
		styles:    st,
		sendWidth: sendWidth,
		width:     defaultWidth,
		height:    defaultHeight,
	}
	m.setRenderer()
	m.syncHeight()
	m.refresh()
	return m, nil
}

// Init starts listening to the store and the session.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForStore(m.storeSub), waitForSession(m.session))
}

// Update handles one event.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textarea.SetWidth(msg.Width - m.sendWidth)
		m.composer.SetWidth(m.textarea.Width())
		m.viewport.Width = msg.Width
		m.setRenderer()
		m.syncHeight()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case storeChangedMsg:
		m.refresh()
		return m, waitForStore(m.storeSub)

	case storeClosedMsg:
		return m, nil

	case serverEventMsg:
		m.handleServerEvent(msg.out)
		return m, waitForSession(m.session)

	case sessionClosedMsg:
		m.setStatus("disconnected from server", true)
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case msg.Type == tea.KeyCtrlS:
		m.submit()
		return m, nil
	case msg.Type == tea.KeyTab:
		m.focusSend(!m.sendFocused)
		return m, nil
	case m.sendFocused:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace {
			m.submit()
			return m, nil
		}
		// anything else goes back to the input
		m.focusSend(false)
	}

	key, modified := composerKey(msg)
	if key == composer.KeyEnter {
		switch m.composer.OnKeyDown(key, modified) {
		case composer.ActionDefault:
			m.textarea.InsertString("\n")
			m.composer.OnInput(m.textarea.Value())
		case composer.ActionSubmit:
			m.textarea.Reset()
			m.composer.OnInput(m.textarea.Value())
			m.viewport.GotoBottom()
		case composer.ActionSuppress:
		}
		m.syncHeight()
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.composer.OnInput(m.textarea.Value())
	m.syncHeight()
	return m, cmd
}

// submit is the send button: it posts the draft the same way Enter does.
func (m *Model) submit() {
	if m.composer.Submit() {
		m.textarea.Reset()
		m.composer.OnInput(m.textarea.Value())
		m.viewport.GotoBottom()
	}
	m.syncHeight()
}

func (m *Model) focusSend(focus bool) {
	m.sendFocused = focus
	if focus {
		m.textarea.Blur()
		return
	}
	m.textarea.Focus()
}

func (m *Model) handleServerEvent(out proto.Outbound) {
	consumed, err := client.Feed(m.store, out)
	if err != nil {
		m.log.Warn().Err(err).Str("event", out.Event).Msg("decode server event")
		return
	}
	if consumed {
		return
	}

	switch {
	case out.Type == proto.OutboundTypeError && out.Error != nil:
		m.setStatus(fmt.Sprintf("error: %s", out.Error.Msg), true)
	case out.Event == proto.EventNameUserJoined:
		var ev proto.EventUserJoined
		if out.Decode(&ev) == nil && ev.Room == m.store.Room() {
			m.setStatus(ev.User+" joined "+ev.Room, false)
		}
	case out.Event == proto.EventNameUserLeft:
		var ev proto.EventUserLeft
		if out.Decode(&ev) == nil && ev.Room == m.store.Room() {
			m.setStatus(ev.User+" left "+ev.Room, false)
		}
	}
}

func (m *Model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

// syncHeight sizes the textarea to the composer and gives the rest to the log.
func (m *Model) syncHeight() {
	m.textarea.SetHeight(m.composer.Height())
	m.viewport.Height = max(m.height-m.composer.Height()-chromeLines, 1)
}

func (m *Model) setRenderer() {
	if !m.markdown {
		m.renderer = nil
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(m.width-4, 20)),
	)
	if err != nil {
		m.log.Warn().Err(err).Msg("markdown renderer unavailable")
		m.renderer = nil
		return
	}
	m.renderer = r
}

// refresh re-renders the log of the current room and keeps the view pinned to the
// bottom when it was there.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderLog())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// Composer exposes the composer for inspection.
func (m *Model) Composer() *composer.Composer {
	return m.composer
}

// Status is the text of the status line.
func (m *Model) Status() string {
	return m.status
}

func waitForStore(sub <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-sub; !ok {
			return storeClosedMsg{}
		}
		return storeChangedMsg{}
	}
}

func waitForSession(s Session) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		out, ok := <-s.Events()
		if !ok {
			return sessionClosedMsg{}
		}
		return serverEventMsg{out: out}
	}
}

// Run shows the chat screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
