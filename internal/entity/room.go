package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
	StatusAborted  Status = "aborted"
)

type Side string

const (
	SideRed   Side = "red"
	SideBlack Side = "black"
	SideNone  Side = ""
)

// Winner values besides the two sides.
const (
	WinnerDraw = "draw"
	WinnerNone = ""
)

const (
	ReasonResign = "resign"
	ReasonIdle   = "idle"
)

var ErrUnknownRoomStatus = errors.New("unknown room status")

// Opposite - returns the other side.
func (that Side) Opposite() Side {
	switch that {
	case SideRed:
		return SideBlack
	case SideBlack:
		return SideRed
	default:
		return SideNone
	}
}

// IdentityRef is the part of an identity a room keeps about its occupants.
type IdentityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Players struct {
	Red   *IdentityRef `json:"red"`
	Black *IdentityRef `json:"black"`
}

type Room struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Players        Players    `json:"players"`
	Status         Status     `json:"status"`
	Turn           Side       `json:"turn"`
	Board          Board      `json:"board"`
	Winner         string     `json:"winner"`
	EndReason      string     `json:"endReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	LastActivityAt time.Time  `json:"lastActivityAt"`
}

// NewRoom - creates a waiting room with the owner seated on red.
func NewRoom(id, code string, owner *Identity, now time.Time) *Room {
	return &Room{
		ID:   id,
		Code: code,
		Players: Players{
			Red: owner.Ref(),
		},
		Status:         StatusWaiting,
		Turn:           SideRed,
		Board:          InitialBoard(),
		Winner:         WinnerNone,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsTerminal() bool {
	return that.Status == StatusFinished || that.Status == StatusAborted
}

// SideOf - returns the side the identity occupies, or SideNone.
func (that *Room) SideOf(identityID string) Side {
	switch {
	case that.Players.Red != nil && that.Players.Red.ID == identityID:
		return SideRed
	case that.Players.Black != nil && that.Players.Black.ID == identityID:
		return SideBlack
	default:
		return SideNone
	}
}

// Occupant - returns who sits on the given side.
func (that *Room) Occupant(side Side) *IdentityRef {
	switch side {
	case SideRed:
		return that.Players.Red
	case SideBlack:
		return that.Players.Black
	default:
		return nil
	}
}

// Seat - seats the joiner on black and starts the game.
func (that *Room) Seat(joiner *Identity, now time.Time) error {
	if that.Players.Black != nil {
		return apperror.ErrRoomFull
	}

	if !that.IsWaiting() {
		return apperror.ErrNotJoinable
	}

	if that.Players.Red != nil && that.Players.Red.ID == joiner.ID {
		return apperror.ErrSelfJoin
	}

	that.Players.Black = joiner.Ref()
	that.Status = StatusActive
	that.StartedAt = &now
	that.LastActivityAt = now

	return nil
}

// ConfirmTurn - checks that side may move now.
func (that *Room) ConfirmTurn(side Side) error {
	if err := that.ConfirmActiveState(); err != nil {
		return err
	}

	if that.Turn != side {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// AdvanceTurn - passes the turn to the opponent after an accepted move.
func (that *Room) AdvanceTurn(now time.Time) {
	that.Turn = that.Turn.Opposite()
	that.LastActivityAt = now
}

// Resign - finishes the game in favour of the resigner's opponent.
func (that *Room) Resign(side Side, now time.Time) error {
	if err := that.ConfirmActiveState(); err != nil {
		return err
	}

	that.finish(StatusFinished, string(side.Opposite()), ReasonResign, now)

	return nil
}

// Abort - terminates a non-terminal room without a winner.
func (that *Room) Abort(reason string, now time.Time) error {
	if that.IsTerminal() {
		return apperror.ErrGameNotActive
	}

	that.finish(StatusAborted, WinnerNone, reason, now)

	return nil
}

func (that *Room) finish(status Status, winner, reason string, now time.Time) {
	that.Status = status
	that.Winner = winner
	that.EndReason = reason
	that.FinishedAt = &now
	that.LastActivityAt = now
}

func (that *Room) ConfirmActiveState() error {
	switch that.Status {
	case StatusActive:
		return nil
	case StatusWaiting, StatusFinished, StatusAborted:
		return apperror.ErrGameNotActive
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoomStatus, that.Status)
	}
}
