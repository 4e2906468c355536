package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

// Actions accepted from clients.
const (
	ActionCreateRoom = "create-room"
	ActionJoinRoom   = "join-room"
	ActionRejoinRoom = "rejoin-room"
	ActionLeaveRoom  = "leave-room"
	ActionSubmitMove = "submit-move"
	ActionResign     = "resign"
	ActionRoomInfo   = "room-info"
)

const (
	EventConnected      = "connected"
	EventActionRejected = "action-rejected"
)

// Message is a client request.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a server push.
type Event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

type ConnectedEvent struct {
	ConnectionID  string           `json:"connectionId"`
	Authenticated bool             `json:"authenticated"`
	Identity      *entity.Identity `json:"identity,omitempty"`
}

type ActionRejectedEvent struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
