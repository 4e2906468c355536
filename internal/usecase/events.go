package usecase

import "github.com/rocketscienceinc/xiangqi-backend/internal/entity"

// Events sent to clients.
const (
	EventRoomCreated        = "room-created"
	EventRoomJoined         = "room-joined"
	EventRoomRejoined       = "room-rejoined"
	EventRoomLeft           = "room-left"
	EventRoomInfo           = "room-info"
	EventPlayerJoined       = "player-joined"
	EventPlayerLeft         = "player-left"
	EventMoveMade           = "move-made"
	EventGameEnded          = "game-ended"
	EventPlayerDisconnected = "player-disconnected"
)

type RoomCodeInput struct {
	RoomCode string `json:"roomCode"`
}

type RoomCreatedEvent struct {
	RoomCode string       `json:"roomCode"`
	Side     entity.Side  `json:"side"`
	Room     *entity.Room `json:"room"`
}

type RoomJoinedEvent struct {
	RoomCode string         `json:"roomCode"`
	Side     entity.Side    `json:"side"`
	Players  entity.Players `json:"players"`
	Turn     entity.Side    `json:"turn"`
	Room     *entity.Room   `json:"room"`
}

type RoomRejoinedEvent struct {
	RoomCode string       `json:"roomCode"`
	Side     entity.Side  `json:"side"`
	Room     *entity.Room `json:"room"`
}

type RoomLeftEvent struct {
	RoomCode string `json:"roomCode"`
}

// PlayerEvent reports someone arriving at, leaving or dropping out of a room.
type PlayerEvent struct {
	RoomCode string              `json:"roomCode"`
	Side     entity.Side         `json:"side"`
	Player   *entity.IdentityRef `json:"player"`
	Room     *entity.Room        `json:"room,omitempty"`
}

type MoveMadeEvent struct {
	Move     *entity.Move `json:"move"`
	Turn     entity.Side  `json:"turn"`
	Sequence int          `json:"sequence"`
}

type GameEndedEvent struct {
	RoomCode string              `json:"roomCode"`
	Reason   string              `json:"reason"`
	Winner   string              `json:"winner"`
	Resigner *entity.IdentityRef `json:"resigner,omitempty"`
	Room     *entity.Room        `json:"room"`
}

// RoomInfo is a consistent snapshot of a room and its move log.
type RoomInfo struct {
	Room      *entity.Room   `json:"room"`
	Moves     []*entity.Move `json:"moves"`
	MoveCount int            `json:"moveCount"`
}
