package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Connection struct {
	ID string

	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

func newConnection(logger *zap.Logger, id string, conn *websocket.Conn, sendBuffer int) *Connection {
	return &Connection{
		ID:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger.With(zap.String("conn_id", id)),
	}
}

// enqueue - reports false when the send queue is full.
func (that *Connection) enqueue(message []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return true
	}

	select {
	case that.send <- message:
		return true
	default:
		return false
	}
}

// close - stops the writer, which then closes the socket.
func (that *Connection) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// readPump - reads client messages until the socket fails and hands each one to handle.
// messageType is websocket.TextMessage or websocket.BinaryMessage.
func (that *Connection) readPump(opts Options, handle func(messageType int, message []byte)) {
	that.conn.SetReadLimit(opts.MaxMessageSize)

	if err := that.conn.SetReadDeadline(time.Now().Add(opts.PongWait)); err != nil {
		that.logger.Error("failed to set read deadline", zap.Error(err))
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		messageType, message, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				that.logger.Warn("unexpected close", zap.Error(err))
			}

			return
		}

		handle(messageType, message)
	}
}

// writePump - drains the send queue and keeps the socket alive with pings.
func (that *Connection) writePump(opts Options) {
	ticker := time.NewTicker(opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait)); err != nil {
				return
			}

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait)); err != nil {
				return
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
