package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type roomMembers interface {
	Members(code string) []string
}

// Hub delivers events to live connections. Sends only enqueue, so they are
// safe to call while a room's exclusive section is held.
type Hub struct {
	logger *zap.Logger

	members roomMembers

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewHub(logger *zap.Logger, members roomMembers) *Hub {
	return &Hub{
		logger:      logger.With(zap.String("component", "ws-hub")),
		members:     members,
		connections: make(map[string]*Connection),
	}
}

func (that *Hub) register(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[conn.ID] = conn
}

func (that *Hub) unregister(conn *Connection) {
	that.mu.Lock()
	if actual, ok := that.connections[conn.ID]; ok && actual == conn {
		delete(that.connections, conn.ID)
	}
	that.mu.Unlock()

	conn.close()
}

func (that *Hub) connection(connID string) (*Connection, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conn, ok := that.connections[connID]

	return conn, ok
}

// SendToRoom - enqueues the event for every connection present in the room except excludeConnID.
func (that *Hub) SendToRoom(code, event string, payload any, excludeConnID string) {
	message, ok := that.encode(event, payload)
	if !ok {
		return
	}

	for _, connID := range that.members.Members(code) {
		if connID == excludeConnID {
			continue
		}

		that.enqueue(connID, message)
	}
}

// SendToConnection - enqueues the event for a single connection.
func (that *Hub) SendToConnection(connID, event string, payload any) {
	message, ok := that.encode(event, payload)
	if !ok {
		return
	}

	that.enqueue(connID, message)
}

// Count - returns the number of live connections.
func (that *Hub) Count() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.connections)
}

// Close - closes every connection.
func (that *Hub) Close() {
	that.mu.Lock()
	connections := that.connections
	that.connections = make(map[string]*Connection)
	that.mu.Unlock()

	for _, conn := range connections {
		conn.close()
	}
}

func (that *Hub) encode(event string, payload any) ([]byte, bool) {
	message, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal event", zap.String("event", event), zap.Error(err))
		return nil, false
	}

	return message, true
}

func (that *Hub) enqueue(connID string, message []byte) {
	conn, ok := that.connection(connID)
	if !ok {
		return
	}

	if !conn.enqueue(message) {
		// a client that cannot keep up loses its connection and must rejoin
		that.logger.Warn("send queue full, closing connection", zap.String("conn_id", connID))
		that.unregister(conn)
	}
}
