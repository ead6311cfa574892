// Package netpeer carries duel messages between two terminals over a
// websocket, one peer listening and the other dialing.
package netpeer

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/reaction-duel/internal/duel"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 1024
	sendBufferSize = duel.DefaultPipeBuffer
)

// Conn is a duel.Transport over a single websocket connection.
type Conn struct {
	ws     *websocket.Conn
	logger *log.Logger

	out  chan duel.Message
	in   chan duel.Message
	done chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ duel.Transport = (*Conn)(nil)

func newConn(ws *websocket.Conn, logger *log.Logger) *Conn {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Conn{
		ws:     ws,
		logger: logger.With("peer", ws.RemoteAddr().String()),
		out:    make(chan duel.Message, sendBufferSize),
		in:     make(chan duel.Message, sendBufferSize),
		done:   make(chan struct{}),
	}

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // only fails on a closed conn
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
	return c
}

// Send queues a message for the peer. It never blocks; when the queue is
// full the oldest pending message is dropped.
func (c *Conn) Send(msg duel.Message) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.out <- msg:
	default:
		select {
		case dropped := <-c.out:
			c.logger.Warn("send queue full, dropping message", "message", dropped)
		default:
		}
		select {
		case c.out <- msg:
		default:
		}
	}
}

// Messages returns the inbound stream. It is closed when the peer goes away
// or the connection is closed locally.
func (c *Conn) Messages() <-chan duel.Message {
	return c.in
}

// Close flushes queued messages, sends a close frame and waits for both
// pumps to exit. Safe to call multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
	return nil
}

func (c *Conn) readPump() {
	defer c.wg.Done()
	defer close(c.in)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("peer connection lost", "error", err)
			} else {
				c.logger.Debug("peer stream ended", "error", err)
			}
			return
		}

		msg, err := duel.DecodeMessage(data)
		if err != nil {
			if errors.Is(err, duel.ErrUnknownMessage) {
				c.logger.Debug("ignoring unknown frame", "error", err)
			} else {
				c.logger.Warn("ignoring malformed frame", "error", err, "size", len(data))
			}
			continue
		}

		select {
		case c.in <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	defer c.wg.Done()
	defer c.ws.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				c.logger.Warn("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteMessage
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}

		case <-c.done:
			c.flush()
			err := c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match over"),
				time.Now().Add(writeWait),
			)
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				c.logger.Debug("close frame not sent", "error", err)
			}
			return
		}
	}
}

// flush writes whatever is still queued, so a final FinishMessage reaches
// the peer before the close frame.
func (c *Conn) flush() {
	for {
		select {
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				c.logger.Debug("flush failed", "error", err)
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(msg duel.Message) error {
	data, err := duel.EncodeMessage(msg)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteMessage
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
