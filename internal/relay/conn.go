package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// FrameHandler is the callback executed when a frame is received.
type FrameHandler func(ctx context.Context, conn *Conn, frame []byte)

type CloseHandler func(conn *Conn, err error)

const readTimeout = 120 * time.Second

// Conn represents a single, thread-safe member connection of a session.
type Conn struct {
	id           uuid.UUID
	sessionToken string
	ws           *websocket.Conn
	send         chan []byte

	onFrame FrameHandler
	onClose CloseHandler

	done      chan struct{}
	wg        *sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	logger *slog.Logger
}

func NewConn(parentCtx context.Context, wg *sync.WaitGroup, ws *websocket.Conn, sessionToken string, logger *slog.Logger) *Conn {
	id := uuid.New()
	connCtx, cancel := context.WithCancel(parentCtx)
	return &Conn{
		id:           id,
		sessionToken: sessionToken,
		ws:           ws,
		send:         make(chan []byte, 256), // Buffered channel
		done:         make(chan struct{}),
		wg:           wg,
		ctx:          connCtx,
		cancel:       cancel,
		logger: logger.With(
			slog.String("connID", id.String()),
			slog.String("sessionToken", sessionToken),
		),
	}
}

func (c *Conn) Run() {
	c.wg.Add(1)
	go c.readPump()
	go c.writePump()

	c.logger.Info("connection established")
}

// readPump pumps frames from the websocket to the frame handler.
func (c *Conn) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		readCtx, cancelRead := context.WithTimeout(c.ctx, readTimeout)
		typ, frame, err := c.ws.Read(readCtx)
		cancelRead()
		if err != nil {
			readErr = err
			return
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			continue
		}
		if c.onFrame != nil {
			c.onFrame(c.ctx, c, frame)
		}
	}
}

// writePump pumps frames from the send channel to the websocket.
func (c *Conn) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.ws.Write(c.ctx, websocket.MessageText, frame); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			c.ws.Close(websocket.StatusNormalClosure, "relay shutting down")
			return
		}
	}
}

// Send queues a frame for the client. Safe for concurrent use.
func (c *Conn) Send(frame []byte) {
	select {
	case c.send <- frame:
	case <-c.ctx.Done():
		c.logger.Warn("Attempted to send on a closed connection")
	}
}

// Close gracefully shuts down the connection and its resources.
func (c *Conn) Close(err error) {
	c.closeOnce.Do(func() {
		c.logger.Info("Connection closing", slog.Any("reason", err))

		// The send channel stays open; writePump exits on the cancelled
		// context, and a Send racing this close either buffers into the
		// dead channel or takes the ctx.Done case. It never writes to a
		// closed channel.
		c.cancel()
		if c.ws != nil {
			c.ws.Close(websocket.StatusNormalClosure, "")
		}
		if c.onClose != nil {
			c.onClose(c, err)
		}
		c.wg.Done()
		close(c.done)
	})
}

// Done returns a channel closed when the connection fully terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ID returns the unique identifier of the connection.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// SessionToken returns the session this connection belongs to.
func (c *Conn) SessionToken() string {
	return c.sessionToken
}

func (c *Conn) SetOnFrameHandler(handler FrameHandler) {
	c.onFrame = handler
}

func (c *Conn) SetOnCloseHandler(handler CloseHandler) {
	c.onClose = handler
}
