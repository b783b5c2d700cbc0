package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	dialTimeout = 10 * time.Second
	writeWait   = 10 * time.Second
)

// TokenSource supplies the current access token. The token is re-read on
// every dial so a refresh that happened mid-session is picked up.
type TokenSource interface {
	AccessToken() (string, error)
}

// ConnCallbacks are invoked from connection goroutines, never while the
// connection mutex is held. Nil callbacks are skipped.
type ConnCallbacks struct {
	// OnMessage receives each well-formed inbound message frame.
	OnMessage func(models.Message)
	// OnServerError receives the text of "error" frames.
	OnServerError func(string)
	// OnState fires on every state transition.
	OnState func(State)
	// OnNotice is the side channel for conditions the user should see
	// but that are not errors in the caller's control flow.
	OnNotice func(string)
	// OnTerminal fires once when a terminal close code ends the
	// reconnect loop.
	OnTerminal func(code int, text string)
}

// Conn owns at most one live websocket, bound to a single conversation.
type Conn struct {
	wsBase     string
	tokens     TokenSource
	cb         ConnCallbacks
	logger     *log.Logger
	dialer     *websocket.Dialer
	retryDelay time.Duration

	mu             sync.Mutex
	writeMu        sync.Mutex
	state          State
	conversationID string
	sock           *websocket.Conn
	retryTimer     *time.Timer
	gen            int
	terminal       bool
}

// NewConn builds an unbound connection. wsBase is the socket endpoint
// root, e.g. "wss://host/ws/chat".
func NewConn(wsBase string, tokens TokenSource, retryDelay time.Duration, cb ConnCallbacks, logger *log.Logger) *Conn {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Conn{
		wsBase:     strings.TrimRight(wsBase, "/"),
		tokens:     tokens,
		cb:         cb,
		logger:     logger,
		dialer:     websocket.DefaultDialer,
		retryDelay: retryDelay,
	}
}

// connEvent is a tagged event fed into dispatch. Every event carries the
// generation it was produced under; stale events are dropped.
type connEvent struct {
	kind eventTag
	gen  int
	sock *websocket.Conn
	code int
	text string
	err  error
}

type eventTag int

const (
	evDialed eventTag = iota
	evDialFailed
	evClosed
	evRetry
)

// Bind points the connection at a conversation, tearing down any socket
// bound elsewhere. Rebinding the currently bound conversation while a
// connection attempt is live or established is a no-op.
func (c *Conn) Bind(conversationID string) {
	c.mu.Lock()
	if conversationID == c.conversationID && c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.conversationID = conversationID
	c.terminal = false
	c.gen++
	gen := c.gen
	after := c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	for _, f := range after {
		f()
	}
	go c.connect(gen, conversationID)
}

// Unbind closes the socket and cancels any pending reconnect.
func (c *Conn) Unbind() {
	c.mu.Lock()
	c.gen++
	c.teardownLocked()
	c.conversationID = ""
	after := c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	for _, f := range after {
		f()
	}
}

// Send writes one outbound frame. When the socket is down it reports via
// the notice callback and returns ErrNotConnected; callers on UI paths
// treat that as already-surfaced.
func (c *Conn) Send(content string, mtype models.MessageType, extra *SendExtra) error {
	c.mu.Lock()
	sock := c.sock
	connected := c.state == StateConnected && sock != nil
	c.mu.Unlock()

	if !connected {
		c.notice("message not sent: connection is down")
		return shared.ErrNotConnected
	}

	frame := OutboundFrame{Message: content, MessageType: string(mtype)}
	if extra != nil {
		frame.SongID = extra.SongID
		frame.PlaylistID = extra.PlaylistID
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = sock.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sock.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotConnected, err)
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConversationID returns the bound conversation, or "".
func (c *Conn) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

func (c *Conn) connect(gen int, conversationID string) {
	token, err := c.tokens.AccessToken()
	if err != nil {
		c.dispatch(connEvent{kind: evDialFailed, gen: gen, err: err})
		return
	}

	endpoint := fmt.Sprintf("%s/%s/?token=%s", c.wsBase, conversationID, url.QueryEscape(token))
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	sock, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		c.dispatch(connEvent{kind: evDialFailed, gen: gen, err: err})
		return
	}
	c.dispatch(connEvent{kind: evDialed, gen: gen, sock: sock})
}

// dispatch is the single place connection state changes. Callbacks are
// collected under the lock and run after it is released.
func (c *Conn) dispatch(ev connEvent) {
	c.mu.Lock()
	if ev.gen != c.gen {
		c.mu.Unlock()
		if ev.sock != nil {
			ev.sock.Close()
		}
		return
	}

	var after []func()
	switch ev.kind {
	case evDialed:
		c.sock = ev.sock
		after = c.setStateLocked(StateConnected)
		c.logger.Info("chat socket connected", "conversation", c.conversationID)
		go c.readLoop(ev.gen, ev.sock)

	case evDialFailed:
		c.logger.Warn("chat dial failed", "error", ev.err)
		after = c.setStateLocked(StateDisconnected)
		c.scheduleRetryLocked(ev.gen)
		after = append(after, func() {
			c.notice("connection lost, retrying")
		})

	case evClosed:
		c.sock = nil
		after = c.setStateLocked(StateDisconnected)
		if terminalClose(ev.code) {
			c.terminal = true
			code, text := ev.code, ev.text
			c.logger.Error("chat socket closed for good", "code", code, "reason", text)
			after = append(after, func() {
				if c.cb.OnTerminal != nil {
					c.cb.OnTerminal(code, text)
				}
			})
		} else {
			c.logger.Warn("chat socket closed", "code", ev.code, "error", ev.err)
			c.scheduleRetryLocked(ev.gen)
			after = append(after, func() {
				c.notice("connection lost, retrying")
			})
		}

	case evRetry:
		c.retryTimer = nil
		if c.state != StateDisconnected || c.terminal || c.conversationID == "" {
			break
		}
		c.gen++
		gen, id := c.gen, c.conversationID
		after = c.setStateLocked(StateConnecting)
		go c.connect(gen, id)
	}
	c.mu.Unlock()

	for _, f := range after {
		f()
	}
}

func (c *Conn) readLoop(gen int, sock *websocket.Conn) {
	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			code, text := closeInfo(err)
			c.dispatch(connEvent{kind: evClosed, gen: gen, code: code, text: text, err: err})
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("dropping unparseable frame", "error", err)
			continue
		}
		c.deliver(gen, frame)
	}
}

// deliver routes one parsed frame to the callbacks, unless a rebind
// outran the read.
func (c *Conn) deliver(gen int, frame Frame) {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}

	switch frame.Type {
	case FrameTypeMessage:
		if frame.Data == nil {
			c.logger.Warn("message frame without data")
			return
		}
		msg := frame.Data.ToMessage()
		if !msg.Valid() {
			c.logger.Warn("dropping malformed message frame", "id", frame.Data.ID)
			return
		}
		if c.cb.OnMessage != nil {
			c.cb.OnMessage(msg)
		}
	case FrameTypeError:
		c.logger.Warn("server error frame", "message", frame.Message)
		if c.cb.OnServerError != nil {
			c.cb.OnServerError(frame.Message)
		}
	default:
		c.logger.Warn("unknown frame type", "type", frame.Type)
	}
}

func (c *Conn) scheduleRetryLocked(gen int) {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	c.retryTimer = time.AfterFunc(c.retryDelay, func() {
		c.dispatch(connEvent{kind: evRetry, gen: gen})
	})
}

func (c *Conn) teardownLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.sock != nil {
		c.sock.Close()
		c.sock = nil
	}
}

func (c *Conn) setStateLocked(next State) []func() {
	if c.state == next {
		return nil
	}
	c.state = next
	if c.cb.OnState == nil {
		return nil
	}
	return []func(){func() { c.cb.OnState(next) }}
}

func (c *Conn) notice(text string) {
	if c.cb.OnNotice != nil {
		c.cb.OnNotice(text)
	}
}

func closeInfo(err error) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
