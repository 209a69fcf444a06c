package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/proto"
)

const (
	eventBuffer = 64
	// handshakeTimeout bounds the dial and the hello exchange, matching the server's hello deadline.
	handshakeTimeout = 10 * time.Second
)

// ErrNotReady is returned by commands sent before a successful Hello.
var ErrNotReady = errors.New("client: hello not completed")

// Conn is one WebSocket chat session.
type Conn struct {
	ws  *websocket.Conn
	log *zerolog.Logger

	helloTimeout time.Duration

	events    chan proto.Outbound
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	ready   bool
	welcome proto.EventWelcome
	err     error
}

// Dial opens a WebSocket to the server. Call Hello before anything else.
func Dial(ctx context.Context, serverURL string, httpClient *http.Client, logger *zerolog.Logger) (*Conn, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, handshakeTimeout)
	defer cancelDial()
	ws, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{HTTPClient: httpClient})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	return &Conn{
		ws:           ws,
		log:          logger,
		helloTimeout: handshakeTimeout,
		events:       make(chan proto.Outbound, eventBuffer),
		ctx:          loopCtx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}, nil
}

// Hello authenticates the session and starts the read loop. A rejected hello
// returns the server's *proto.Error. A server that stays silent fails the call
// after the handshake timeout.
func (c *Conn) Hello(ctx context.Context, token string) (proto.EventWelcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.helloTimeout)
	defer cancel()

	if err := c.write(ctx, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}); err != nil {
		return proto.EventWelcome{}, err
	}

	var out proto.Outbound
	if err := wsjson.Read(ctx, c.ws, &out); err != nil {
		return proto.EventWelcome{}, fmt.Errorf("read welcome: %w", err)
	}
	if out.Type == proto.OutboundTypeError && out.Error != nil {
		return proto.EventWelcome{}, out.Error
	}
	if out.Event != proto.EventNameWelcome {
		return proto.EventWelcome{}, fmt.Errorf("expected welcome, got %s %s", out.Type, out.Event)
	}

	var welcome proto.EventWelcome
	if err := out.Decode(&welcome); err != nil {
		return proto.EventWelcome{}, fmt.Errorf("decode welcome: %w", err)
	}

	c.mu.Lock()
	c.ready = true
	c.welcome = welcome
	c.mu.Unlock()

	c.startOnce.Do(func() { go c.readLoop() })
	return welcome, nil
}

// Welcome returns what the server sent in response to Hello.
func (c *Conn) Welcome() proto.EventWelcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.welcome
}

// Join enters a room. The server answers with a history event.
func (c *Conn) Join(ctx context.Context, room string) error {
	return c.command(ctx, proto.InboundTypeJoin, proto.JoinData{Room: room})
}

// Leave exits a room.
func (c *Conn) Leave(ctx context.Context, room string) error {
	return c.command(ctx, proto.InboundTypeLeave, proto.JoinData{Room: room})
}

// Send posts text to room. localID comes back in the resulting message event.
func (c *Conn) Send(ctx context.Context, room, localID, text string) error {
	return c.command(ctx, proto.InboundTypeMsg, proto.MsgData{Room: room, Text: text, ClientID: localID})
}

// Events delivers server frames after Hello. It is closed when the session ends.
func (c *Conn) Events() <-chan proto.Outbound {
	return c.events
}

// Err reports why the session ended, nil after a clean Close.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the session and waits for the read loop to stop.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close(websocket.StatusNormalClosure, "bye")
		c.cancel()
		// without a read loop nobody else closes the channels
		c.startOnce.Do(func() {
			close(c.events)
			close(c.done)
		})
		<-c.done
	})
	return err
}

func (c *Conn) command(ctx context.Context, typ string, data any) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()
	if !ready {
		return ErrNotReady
	}
	return c.write(ctx, typ, data)
}

func (c *Conn) write(ctx context.Context, typ string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, c.ws, proto.Inbound{Type: typ, Data: raw}); err != nil {
		return fmt.Errorf("write %s: %w", typ, err)
	}
	return nil
}

func (c *Conn) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		var out proto.Outbound
		if err := wsjson.Read(c.ctx, c.ws, &out); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			c.log.Warn().Err(err).Msg("ws read failed")
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}

		select {
		case c.events <- out:
		case <-c.ctx.Done():
			return
		}
	}
}
