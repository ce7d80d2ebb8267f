package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/tidwall/gjson"

	"github.com/Teyk0o/wwsnb/pkg/reactions"
)

// ErrNotReady is returned by Send when no connection is open. Callers
// recover by queuing; the error never reaches the end user.
var ErrNotReady = errors.New("transport not ready")

// Status is the coarse connection state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

// Conn is the minimal websocket surface the client needs.
// *websocket.Conn satisfies it.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// DialFunc opens a websocket connection to the relay.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func defaultDial(ctx context.Context, u string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SnapshotFunc supplies the full local reaction state pushed to the
// relay right after a connection opens.
type SnapshotFunc func() reactions.Snapshot

// UpdateFunc receives an authoritative full state pushed by the relay.
type UpdateFunc func(reactions.Snapshot)

type ClientConfig struct {
	URL          string
	SessionToken string
	// MaxRetries bounds consecutive reconnect attempts for one connect
	// lifecycle. Past the ceiling the client stays down until an
	// external Connect.
	MaxRetries  int
	RetryDelay  time.Duration
	SendTimeout time.Duration
	DialTimeout time.Duration
	// Dial optionally overrides the websocket dialer.
	Dial DialFunc
}

// Client is a reconnecting websocket client for the reaction relay.
// Frames are fire-and-forget: a send is confirmed as soon as the local
// write succeeds, no relay-side acknowledgment is awaited.
type Client struct {
	cfg    ClientConfig
	logger *slog.Logger
	ctx    context.Context

	onSnapshot SnapshotFunc
	onUpdate   UpdateFunc

	mu      sync.Mutex
	conn    Conn
	status  Status
	retries int
	closed  bool
	gen     int

	queue *Queue
}

func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.Dial == nil {
		cfg.Dial = defaultDial
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	c := &Client{
		cfg:    cfg,
		ctx:    ctx,
		logger: logger.With(slog.String("component", "transport"), slog.String("sessionToken", cfg.SessionToken)),
	}
	c.queue = NewQueue(c.Send, logger)
	return c
}

// SetSnapshotFunc installs the provider of the local state pushed on connect.
func (c *Client) SetSnapshotFunc(fn SnapshotFunc) { c.onSnapshot = fn }

// SetUpdateFunc installs the receiver for relay state pushes.
func (c *Client) SetUpdateFunc(fn UpdateFunc) { c.onUpdate = fn }

// Connect establishes a connection to the relay, closing any prior one
// first. On success it resets the retry counter, pushes the full local
// state and drains the outbound queue oldest-first. On failure the
// bounded reconnect cycle starts.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "superseded by new connect")
		c.conn = nil
	}
	c.closed = false
	c.retries = 0
	c.status = StatusConnecting
	c.mu.Unlock()

	return c.dial()
}

func (c *Client) dial() error {
	u, err := sessionURL(c.cfg.URL, c.cfg.SessionToken)
	if err != nil {
		c.logger.Error("Invalid relay URL", slog.Any("error", err))
		return err
	}

	dialCtx, cancel := context.WithTimeout(c.ctx, c.cfg.DialTimeout)
	conn, err := c.cfg.Dial(dialCtx, u)
	cancel()
	if err != nil {
		c.logger.Warn("Relay dial failed", slog.Any("error", err))
		c.scheduleReconnect()
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "closed during dial")
		return nil
	}
	c.conn = conn
	c.status = StatusConnected
	c.retries = 0
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.logger.Info("Connected to relay")
	go c.readLoop(conn, gen)

	c.pushState()
	c.queue.Drain()
	return nil
}

// scheduleReconnect arms one delayed redial, bounded by the retry
// ceiling. The delay is abortable by the lifecycle context.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.retries >= c.cfg.MaxRetries {
		c.status = StatusDisconnected
		c.mu.Unlock()
		c.logger.Error("Reconnect attempts exhausted, staying disconnected",
			slog.Int("attempts", c.cfg.MaxRetries))
		return
	}
	c.retries++
	attempt := c.retries
	c.status = StatusReconnecting
	c.mu.Unlock()

	c.logger.Warn("Scheduling reconnect",
		slog.Int("attempt", attempt),
		slog.Duration("delay", c.cfg.RetryDelay),
	)
	go func() {
		timer := time.NewTimer(c.cfg.RetryDelay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		_ = c.dial()
	}()
}

// readLoop pumps inbound frames until the connection dies. A dead
// connection belonging to the current generation triggers the reconnect
// cycle; stale loops from superseded connections just exit.
func (c *Client) readLoop(conn Conn, gen int) {
	for {
		typ, data, err := conn.Read(c.ctx)
		if err != nil {
			c.mu.Lock()
			current := c.gen == gen && c.conn != nil
			if current {
				c.conn = nil
				c.status = StatusDisconnected
			}
			closedByUs := c.closed
			c.mu.Unlock()

			if current && !closedByUs {
				c.logger.Warn("Relay connection lost", slog.Any("error", err))
				c.scheduleReconnect()
			}
			return
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		c.handleFrame(data)
	}
}

// handleFrame applies one inbound frame. Malformed frames are logged and
// dropped; they never close the connection.
func (c *Client) handleFrame(data []byte) {
	if !gjson.ValidBytes(data) {
		c.logger.Warn("Dropping malformed frame")
		return
	}
	switch gjson.GetBytes(data, "type").String() {
	case TypeUpdateReactions:
		raw := gjson.GetBytes(data, "data.reactions").String()
		snap, err := reactions.DecodeEntries(raw)
		if err != nil {
			c.logger.Warn("Dropping unparseable state push", slog.Any("error", err))
			return
		}
		if c.onUpdate != nil {
			c.onUpdate(snap)
		}
	default:
		c.logger.Debug("Ignoring unknown frame type",
			slog.String("type", gjson.GetBytes(data, "type").String()))
	}
}

// Send transmits one frame. It fails immediately with ErrNotReady when
// no connection is open; the caller is responsible for queuing. An open
// connection gets a context-bounded write.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.SendTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

// Enqueue buffers a frame for transmission once the transport is ready.
// onSent, if non-nil, runs after the confirmed send.
func (c *Client) Enqueue(payload []byte, onSent func()) {
	c.queue.Enqueue(Outbound{Payload: payload, OnSent: onSent})
}

// Pending reports how many frames wait in the outbound queue.
func (c *Client) Pending() int { return c.queue.Len() }

// Status returns the coarse connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close shuts the connection down with a reason and suppresses any
// further automatic reconnects until the next Connect.
func (c *Client) Close(reason string) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.closed = true
	c.status = StatusDisconnected
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, reason)
	}
	c.logger.Info("Transport closed", slog.String("reason", reason))
}

// pushState sends the full local state to the relay.
func (c *Client) pushState() {
	if c.onSnapshot == nil {
		return
	}
	entries, err := reactions.EncodeEntries(c.onSnapshot())
	if err != nil {
		c.logger.Error("Failed to encode local state", slog.Any("error", err))
		return
	}
	payload, err := NewStatePush(c.cfg.SessionToken, entries)
	if err != nil {
		c.logger.Error("Failed to build state push", slog.Any("error", err))
		return
	}
	if err := c.Send(payload); err != nil {
		c.logger.Warn("Initial state push failed", slog.Any("error", err))
	}
}

func sessionURL(base, sessionToken string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("sessionToken", sessionToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
