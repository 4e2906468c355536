package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/pkg"
)

// Broadcaster delivers events to live connections. Implementations must only enqueue.
type Broadcaster interface {
	SendToRoom(code, event string, payload any, excludeConnID string)
	SendToConnection(connID, event string, payload any)
}

type roomRegistry interface {
	Lock(code string) func()
	Create(ctx context.Context, owner *entity.Identity) (*entity.Room, error)
	Join(ctx context.Context, code string, joiner *entity.Identity) (*entity.Room, error)
	Get(ctx context.Context, code string) (*entity.Room, error)
	Save(ctx context.Context, room *entity.Room) error
}

type moveRepository interface {
	Count(ctx context.Context, code string) (int, error)
	Append(ctx context.Context, room *entity.Room, move *entity.Move) error
	List(ctx context.Context, code string) ([]*entity.Move, error)
}

type presenceIndex interface {
	Bind(connID, code string)
	Unbind(connID string) (string, bool)
	RoomOf(connID string) (string, bool)
}

// SessionCoordinator drives the room lifecycle for connected players.
// Every mutation of a room runs inside the room's exclusive section and is
// persisted before anything is sent, so clients see events in commit order.
type SessionCoordinator struct {
	logger *zap.Logger

	registry    roomRegistry
	moves       moveRepository
	presence    presenceIndex
	broadcaster Broadcaster

	allowAnonymous bool
	now            func() time.Time
}

func NewSessionCoordinator(
	logger *zap.Logger,
	registry roomRegistry,
	moves moveRepository,
	presence presenceIndex,
	broadcaster Broadcaster,
	allowAnonymous bool,
) *SessionCoordinator {
	return &SessionCoordinator{
		logger:         logger.With(zap.String("component", "session-coordinator")),
		registry:       registry,
		moves:          moves,
		presence:       presence,
		broadcaster:    broadcaster,
		allowAnonymous: allowAnonymous,
		now:            time.Now,
	}
}

// CreateRoom - opens a new room with the caller on red.
func (that *SessionCoordinator) CreateRoom(ctx context.Context, binding *entity.Binding) error {
	if err := that.requirePlayer(binding); err != nil {
		return err
	}

	if err := that.ensureDetached(ctx, binding, ""); err != nil {
		return err
	}

	room, err := that.registry.Create(ctx, binding.Identity)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	unlock := that.registry.Lock(room.Code)
	defer unlock()

	binding.Attach(room.Code, entity.SideRed)
	that.presence.Bind(binding.ConnID, room.Code)

	that.broadcaster.SendToConnection(binding.ConnID, EventRoomCreated, RoomCreatedEvent{
		RoomCode: room.Code,
		Side:     entity.SideRed,
		Room:     room,
	})

	return nil
}

// JoinRoom - seats the caller on black and starts the game.
func (that *SessionCoordinator) JoinRoom(ctx context.Context, binding *entity.Binding, input RoomCodeInput) error {
	if err := that.requirePlayer(binding); err != nil {
		return err
	}

	code, err := requireRoomCode(input)
	if err != nil {
		return err
	}

	if err = that.ensureDetached(ctx, binding, code); err != nil {
		return err
	}

	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Join(ctx, code, binding.Identity)
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	binding.Attach(code, entity.SideBlack)
	that.presence.Bind(binding.ConnID, code)

	that.broadcaster.SendToConnection(binding.ConnID, EventRoomJoined, RoomJoinedEvent{
		RoomCode: code,
		Side:     entity.SideBlack,
		Players:  room.Players,
		Turn:     room.Turn,
		Room:     room,
	})

	that.broadcaster.SendToRoom(code, EventPlayerJoined, PlayerEvent{
		RoomCode: code,
		Side:     entity.SideBlack,
		Player:   binding.Identity.Ref(),
		Room:     room,
	}, binding.ConnID)

	return nil
}

// OpenRoom - creates a room for an identity that is not acting through a connection.
// The owner attaches later with RejoinRoom.
func (that *SessionCoordinator) OpenRoom(ctx context.Context, owner *entity.Identity) (*entity.Room, error) {
	if owner == nil {
		return nil, apperror.ErrAuthRequired
	}

	room, err := that.registry.Create(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// SeatPlayer - seats an identity on black without a connection and tells everyone
// already in the room.
func (that *SessionCoordinator) SeatPlayer(ctx context.Context, code string, joiner *entity.Identity) (*entity.Room, error) {
	if joiner == nil {
		return nil, apperror.ErrAuthRequired
	}

	code, err := requireRoomCode(RoomCodeInput{RoomCode: code})
	if err != nil {
		return nil, err
	}

	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Join(ctx, code, joiner)
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	that.broadcaster.SendToRoom(code, EventPlayerJoined, PlayerEvent{
		RoomCode: code,
		Side:     entity.SideBlack,
		Player:   joiner.Ref(),
		Room:     room,
	}, "")

	return room, nil
}

// RejoinRoom - attaches a new connection of a seated player to their room.
func (that *SessionCoordinator) RejoinRoom(ctx context.Context, binding *entity.Binding, input RoomCodeInput) error {
	if err := that.requirePlayer(binding); err != nil {
		return err
	}

	code, err := requireRoomCode(input)
	if err != nil {
		return err
	}

	if err = that.ensureDetached(ctx, binding, code); err != nil {
		return err
	}

	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Get(ctx, code)
	if err != nil {
		return err
	}

	side := room.SideOf(binding.Identity.ID)
	if side == entity.SideNone {
		return apperror.ErrNotAPlayer
	}

	binding.Attach(code, side)
	that.presence.Bind(binding.ConnID, code)

	that.broadcaster.SendToConnection(binding.ConnID, EventRoomRejoined, RoomRejoinedEvent{
		RoomCode: code,
		Side:     side,
		Room:     room,
	})

	that.broadcaster.SendToRoom(code, EventPlayerJoined, PlayerEvent{
		RoomCode: code,
		Side:     side,
		Player:   binding.Identity.Ref(),
		Room:     room,
	}, binding.ConnID)

	return nil
}

// LeaveRoom - detaches the connection from the room. The room itself is not changed.
func (that *SessionCoordinator) LeaveRoom(ctx context.Context, binding *entity.Binding, input RoomCodeInput) error {
	code := strings.TrimSpace(input.RoomCode)
	if code == "" {
		code = binding.RoomCode
	}

	if !binding.InRoom(code) {
		return nil
	}

	unlock := that.registry.Lock(code)
	defer unlock()

	side := binding.Side
	binding.Detach()
	that.presence.Unbind(binding.ConnID)

	that.broadcaster.SendToConnection(binding.ConnID, EventRoomLeft, RoomLeftEvent{RoomCode: code})
	that.broadcaster.SendToRoom(code, EventPlayerLeft, PlayerEvent{
		RoomCode: code,
		Side:     side,
		Player:   binding.Identity.Ref(),
	}, binding.ConnID)

	return nil
}

// SubmitMove - records the move, passes the turn and relays the move to the room.
// The move is stored as submitted, without any rule check.
func (that *SessionCoordinator) SubmitMove(ctx context.Context, binding *entity.Binding, input *entity.MoveInput) error {
	log := that.logger.With(zap.String("method", "SubmitMove"), zap.String("conn_id", binding.ConnID))

	if binding.RoomCode == "" || binding.Identity == nil {
		return apperror.ErrNotInRoom
	}

	code := binding.RoomCode

	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Get(ctx, code)
	if err != nil {
		return err
	}

	side := room.SideOf(binding.Identity.ID)
	if side == entity.SideNone {
		return apperror.ErrNotAPlayer
	}

	if err = room.ConfirmTurn(side); err != nil {
		return err
	}

	if input == nil {
		return apperror.Validation("move is required")
	}

	if err = input.Validate(); err != nil {
		return err
	}

	count, err := that.moves.Count(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to count moves: %w", err)
	}

	now := that.now()
	move := entity.NewMove(pkg.GenerateID(), room, count+1, input, binding.Identity, side, now)
	room.AdvanceTurn(now)

	if err = that.moves.Append(ctx, room, move); err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	log.Debug("move accepted", zap.String("room_code", code), zap.Int("sequence", move.Sequence))

	that.broadcaster.SendToRoom(code, EventMoveMade, MoveMadeEvent{
		Move:     move,
		Turn:     room.Turn,
		Sequence: move.Sequence,
	}, "")

	return nil
}

// Resign - finishes the game in favour of the caller's opponent.
func (that *SessionCoordinator) Resign(ctx context.Context, binding *entity.Binding) error {
	if binding.RoomCode == "" || binding.Identity == nil {
		return apperror.ErrNotInRoom
	}

	code := binding.RoomCode

	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Get(ctx, code)
	if err != nil {
		return err
	}

	side := room.SideOf(binding.Identity.ID)
	if side == entity.SideNone {
		return apperror.ErrNotAPlayer
	}

	if err = room.Resign(side, that.now()); err != nil {
		return err
	}

	if err = that.registry.Save(ctx, room); err != nil {
		return err
	}

	that.logger.Info("player resigned",
		zap.String("method", "Resign"),
		zap.String("room_code", code),
		zap.String("side", string(side)),
	)

	that.broadcaster.SendToRoom(code, EventGameEnded, GameEndedEvent{
		RoomCode: code,
		Reason:   room.EndReason,
		Winner:   room.Winner,
		Resigner: room.Occupant(side),
		Room:     room,
	}, "")

	return nil
}

// RoomInfo - sends the room snapshot with its move log to the caller.
func (that *SessionCoordinator) RoomInfo(ctx context.Context, binding *entity.Binding, input RoomCodeInput) error {
	code := strings.TrimSpace(input.RoomCode)
	if code == "" {
		code = binding.RoomCode
	}

	if code == "" {
		return apperror.Validation("roomCode is required")
	}

	info, err := that.Snapshot(ctx, code)
	if err != nil {
		return err
	}

	that.broadcaster.SendToConnection(binding.ConnID, EventRoomInfo, info)

	return nil
}

// Snapshot - reads the room and its moves as of one point in the room's history.
func (that *SessionCoordinator) Snapshot(ctx context.Context, code string) (*RoomInfo, error) {
	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	moves, err := that.moves.List(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	return &RoomInfo{
		Room:      room,
		Moves:     moves,
		MoveCount: len(moves),
	}, nil
}

// Disconnect - drops the connection from presence and tells the rest of the room.
// The room status is left as is.
func (that *SessionCoordinator) Disconnect(ctx context.Context, binding *entity.Binding) {
	code, ok := that.presence.RoomOf(binding.ConnID)
	if !ok {
		return
	}

	unlock := that.registry.Lock(code)
	defer unlock()

	that.presence.Unbind(binding.ConnID)

	event := PlayerEvent{RoomCode: code}
	if binding.InRoom(code) {
		event.Side = binding.Side
	}

	if binding.Identity != nil {
		event.Player = binding.Identity.Ref()
	}

	binding.Detach()

	that.logger.Debug("connection left room",
		zap.String("method", "Disconnect"),
		zap.String("conn_id", binding.ConnID),
		zap.String("room_code", code),
	)

	that.broadcaster.SendToRoom(code, EventPlayerDisconnected, event, binding.ConnID)
}

// AbortIdle - aborts the room if nothing happened in it since cutoff.
// It reports whether the room was aborted.
func (that *SessionCoordinator) AbortIdle(ctx context.Context, code string, cutoff time.Time) (bool, error) {
	unlock := that.registry.Lock(code)
	defer unlock()

	room, err := that.registry.Get(ctx, code)
	if err != nil {
		return false, err
	}

	if room.IsTerminal() || room.LastActivityAt.After(cutoff) {
		return false, nil
	}

	if err = room.Abort(entity.ReasonIdle, that.now()); err != nil {
		return false, err
	}

	if err = that.registry.Save(ctx, room); err != nil {
		return false, err
	}

	that.logger.Info("idle room aborted", zap.String("method", "AbortIdle"), zap.String("room_code", code))

	that.broadcaster.SendToRoom(code, EventGameEnded, GameEndedEvent{
		RoomCode: code,
		Reason:   room.EndReason,
		Winner:   room.Winner,
		Room:     room,
	}, "")

	return true, nil
}

func (that *SessionCoordinator) requirePlayer(binding *entity.Binding) error {
	if !binding.CanPlay(that.allowAnonymous) {
		return apperror.ErrAuthRequired
	}

	return nil
}

// ensureDetached - frees the connection from a finished room it still points at.
// A connection in a live room other than target may not start or join another one.
func (that *SessionCoordinator) ensureDetached(ctx context.Context, binding *entity.Binding, target string) error {
	if binding.RoomCode == "" || binding.RoomCode == target {
		return nil
	}

	current := binding.RoomCode

	room, err := that.registry.Get(ctx, current)
	if err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
		return err
	}

	if err == nil && !room.IsTerminal() {
		return apperror.ErrAlreadyInRoom
	}

	unlock := that.registry.Lock(current)
	defer unlock()

	binding.Detach()
	that.presence.Unbind(binding.ConnID)

	return nil
}

func requireRoomCode(input RoomCodeInput) (string, error) {
	code := strings.TrimSpace(input.RoomCode)
	if code == "" {
		return "", apperror.Validation("roomCode is required")
	}

	return code, nil
}
