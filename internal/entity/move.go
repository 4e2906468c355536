package entity

import (
	"strings"
	"time"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

type Coord struct {
	R int `json:"r"`
	C int `json:"c"`
}

func (that Coord) OnBoard() bool {
	return that.R >= 0 && that.R < BoardRows && that.C >= 0 && that.C < BoardCols
}

// MoveInput is what a client submits. Nothing here is checked against Xiangqi rules.
type MoveInput struct {
	Piece    string  `json:"piece"`
	From     *Coord  `json:"from"`
	To       *Coord  `json:"to"`
	Captured *string `json:"captured,omitempty"`
}

// Validate - checks the payload shape only.
func (that *MoveInput) Validate() error {
	if strings.TrimSpace(that.Piece) == "" {
		return apperror.Validation("piece is required")
	}

	if that.From == nil || that.To == nil {
		return apperror.Validation("from and to are required")
	}

	if !that.From.OnBoard() || !that.To.OnBoard() {
		return apperror.Validation("coordinates are outside the board")
	}

	return nil
}

type Move struct {
	ID       string       `json:"id"`
	RoomCode string       `json:"roomCode"`
	Sequence int          `json:"sequence"`
	Piece    string       `json:"piece"`
	From     Coord        `json:"from"`
	To       Coord        `json:"to"`
	Captured *string      `json:"captured"`
	PlayedBy *IdentityRef `json:"playedBy"`
	Side     Side         `json:"side"`
	// CreatedAt is stamped by the server.
	CreatedAt time.Time `json:"createdAt"`
}

// NewMove - records the input verbatim as the next ply of the room.
func NewMove(id string, room *Room, sequence int, input *MoveInput, by *Identity, side Side, now time.Time) *Move {
	move := &Move{
		ID:        id,
		RoomCode:  room.Code,
		Sequence:  sequence,
		Piece:     strings.TrimSpace(input.Piece),
		From:      *input.From,
		To:        *input.To,
		PlayedBy:  by.Ref(),
		Side:      side,
		CreatedAt: now,
	}

	if input.Captured != nil {
		if captured := strings.TrimSpace(*input.Captured); captured != "" {
			move.Captured = &captured
		}
	}

	return move
}
