package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/pkg"
)

const defaultCodeAttempts = 5

type roomRepository interface {
	Create(ctx context.Context, room *entity.Room) (bool, error)
	Save(ctx context.Context, room *entity.Room) error
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
}

// RoomRegistry owns room creation and lookup and the per-room exclusive section.
type RoomRegistry struct {
	logger *zap.Logger

	rooms roomRepository
	locks *pkg.KeyLock

	codeAttempts int
	generateCode func() (string, error)
	now          func() time.Time
}

func NewRoomRegistry(logger *zap.Logger, rooms roomRepository, codeAttempts int) *RoomRegistry {
	if codeAttempts <= 0 {
		codeAttempts = defaultCodeAttempts
	}

	return &RoomRegistry{
		logger:       logger.With(zap.String("component", "room-registry")),
		rooms:        rooms,
		locks:        pkg.NewKeyLock(),
		codeAttempts: codeAttempts,
		generateCode: pkg.GenerateRoomCode,
		now:          time.Now,
	}
}

// Lock - enters the exclusive section of the room and returns its release func.
func (that *RoomRegistry) Lock(code string) func() {
	return that.locks.Lock(code)
}

// Create - allocates a fresh code and stores a waiting room with the owner on red.
func (that *RoomRegistry) Create(ctx context.Context, owner *entity.Identity) (*entity.Room, error) {
	log := that.logger.With(zap.String("method", "Create"))

	for attempt := 1; attempt <= that.codeAttempts; attempt++ {
		code, err := that.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		room := entity.NewRoom(pkg.GenerateID(), code, owner, that.now())

		created, err := that.rooms.Create(ctx, room)
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		if created {
			log.Info("room created", zap.String("room_code", code), zap.String("owner_id", owner.ID))
			return room, nil
		}

		log.Warn("room code collision", zap.String("room_code", code), zap.Int("attempt", attempt))
	}

	return nil, apperror.ErrCodeSpaceExhausted
}

// Join - seats the joiner on black. The caller must hold Lock(code).
func (that *RoomRegistry) Join(ctx context.Context, code string, joiner *entity.Identity) (*entity.Room, error) {
	room, err := that.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if err = room.Seat(joiner, that.now()); err != nil {
		return nil, err
	}

	if err = that.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.logger.Info("player joined room",
		zap.String("method", "Join"),
		zap.String("room_code", code),
		zap.String("identity_id", joiner.ID),
	)

	return room, nil
}

func (that *RoomRegistry) Get(ctx context.Context, code string) (*entity.Room, error) {
	room, err := that.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// Save - persists a room mutated inside its exclusive section.
func (that *RoomRegistry) Save(ctx context.Context, room *entity.Room) error {
	if err := that.rooms.Save(ctx, room); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}
