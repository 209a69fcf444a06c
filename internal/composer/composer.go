// Package composer holds the input logic of the chat message composer: the draft text,
// the keyboard policy that decides between newline and submission, and the auto-growing
// height of the input surface. It has no terminal dependencies; internal/tui renders it.
package composer

import (
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

const (
	// DefaultMaxHeight is the number of rows the input grows to before it scrolls.
	DefaultMaxHeight = 8
	minHeight        = 1
)

// ErrMissingIdentity is returned when the composer is built without a sender username.
var ErrMissingIdentity = errors.New("composer: sender identity is not registered")

// ErrNilStore is returned when the composer is built without a message store.
var ErrNilStore = errors.New("composer: message store is nil")

// Key is a key reported by the input surface.
type Key int

const (
	// KeyOther is any key the composer has no policy for.
	KeyOther Key = iota
	// KeyEnter is the submission key.
	KeyEnter
)

// Action tells the input surface what to do with a key after the composer saw it.
type Action int

const (
	// ActionDefault lets the surface handle the key (insert a newline or character).
	ActionDefault Action = iota
	// ActionSuppress swallows the key.
	ActionSuppress
	// ActionSubmit swallows the key; the draft has been submitted.
	ActionSubmit
)

func (a Action) String() string {
	switch a {
	case ActionSuppress:
		return "suppress"
	case ActionSubmit:
		return "submit"
	default:
		return "default"
	}
}

// State is the logical state of the composer.
type State int

const (
	// Idle means the draft is empty or whitespace.
	Idle State = iota
	// Composing means the draft holds submittable text.
	Composing
)

func (s State) String() string {
	if s == Composing {
		return "composing"
	}
	return "idle"
}

// Option configures a Composer.
type Option func(*Composer)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxHeight sets the row cap of the input surface.
func WithMaxHeight(rows int) Option {
	return func(c *Composer) {
		if rows >= minHeight {
			c.maxHeight = rows
		}
	}
}

// WithWidth sets the wrap width of the input surface in cells. Zero disables wrapping.
func WithWidth(cells int) Option {
	return func(c *Composer) {
		c.width = max(cells, 0)
	}
}

// RowCounter reports how many rows text takes on an input surface width cells wide.
type RowCounter func(text string, width int) int

// WithRowCounter makes the height follow the surface's own wrapping instead of
// VisualRows. A nil counter is ignored.
func WithRowCounter(count RowCounter) Option {
	return func(c *Composer) {
		if count != nil {
			c.countRows = count
		}
	}
}

// Composer captures draft text and turns it into MessageRecords.
// It is not safe for concurrent use; all methods run on the UI event loop.
type Composer struct {
	identity Identity
	store    MessageAdder
	now      func() time.Time

	draft        string
	submitToggle bool

	countRows  RowCounter
	width      int
	maxHeight  int
	height     int
	rows       int
	effectKey  effectKey
	effectRuns int
}

// effectKey is the dependency list of the height recalculation.
type effectKey struct {
	draft  string
	toggle bool
	width  int
}

// New builds a composer bound to a sender identity and a message store.
func New(identity Identity, store MessageAdder, opts ...Option) (*Composer, error) {
	if strings.TrimSpace(identity.Username) == "" {
		return nil, ErrMissingIdentity
	}
	if store == nil {
		return nil, ErrNilStore
	}

	c := &Composer{
		identity:  identity,
		store:     store,
		now:       time.Now,
		countRows: VisualRows,
		maxHeight: DefaultMaxHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.recalc(true)
	return c, nil
}

// Draft returns the current draft text.
func (c *Composer) Draft() string {
	return c.draft
}

// State reports whether the draft holds submittable text.
func (c *Composer) State() State {
	if strings.TrimSpace(c.draft) == "" {
		return Idle
	}
	return Composing
}

// Identity returns the sender the composer was built with.
func (c *Composer) Identity() Identity {
	return c.identity
}

// OnInput records the full content of the input surface.
func (c *Composer) OnInput(raw string) {
	c.draft = raw
	c.recalc(false)
}

// SetWidth updates the wrap width after the surface was resized.
func (c *Composer) SetWidth(cells int) {
	c.width = max(cells, 0)
	c.recalc(false)
}

// OnKeyDown applies the keyboard policy. When it returns ActionSubmit the draft has
// already been handed to the store and cleared.
func (c *Composer) OnKeyDown(key Key, shift bool) Action {
	if key != KeyEnter {
		return ActionDefault
	}
	if c.State() == Idle {
		return ActionSuppress
	}
	if shift {
		return ActionDefault
	}
	c.Submit()
	return ActionSubmit
}

// Submit hands the draft to the store, then resets the draft and the height.
// It reports false and does nothing while the composer is Idle.
func (c *Composer) Submit() bool {
	if c.State() == Idle {
		return false
	}

	c.store.AddMessage(MessageRecord{
		Content:   c.draft,
		Sender:    Sender{Username: c.identity.Username},
		CreatedAt: FormatCreatedAt(c.now()),
	})

	c.draft = ""
	c.submitToggle = !c.submitToggle
	c.recalc(false)
	return true
}

// Height is the number of rows the input surface should show.
func (c *Composer) Height() int {
	return c.height
}

// MaxHeight is the row cap.
func (c *Composer) MaxHeight() int {
	return c.maxHeight
}

// Scrollable reports whether the draft needs more rows than MaxHeight.
func (c *Composer) Scrollable() bool {
	return c.rows > c.maxHeight
}

// recalc re-runs the height effect when one of its dependencies changed.
func (c *Composer) recalc(force bool) {
	key := effectKey{draft: c.draft, toggle: c.submitToggle, width: c.width}
	if !force && key == c.effectKey {
		return
	}
	c.effectKey = key
	c.effectRuns++

	c.rows = c.countRows(c.draft, c.width)
	c.height = min(max(c.rows, minHeight), c.maxHeight)
}

// VisualRows counts the rows text occupies when soft-wrapped at width cells.
// A width of zero or less disables wrapping.
func VisualRows(text string, width int) int {
	rows := 0
	for _, line := range strings.Split(text, "\n") {
		w := runewidth.StringWidth(line)
		if width <= 0 || w <= width {
			rows++
			continue
		}
		rows += (w + width - 1) / width
	}
	return rows
}
