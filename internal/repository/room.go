package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

const openRoomsKey = "rooms:open"

type RoomRepository interface {
	// Create stores a new room only if its code is free. It reports false on a code collision.
	Create(ctx context.Context, room *entity.Room) (bool, error)
	Save(ctx context.Context, room *entity.Room) error

	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	GetByID(ctx context.Context, id string) (*entity.Room, error)

	// ListIdleSince returns codes of non-terminal rooms with no activity after cutoff.
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func roomKey(code string) string {
	return "room:" + code
}

func roomIDKey(id string) string {
	return "room:id:" + id
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) (bool, error) {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return false, fmt.Errorf("could not marshal room: %w", err)
	}

	created, err := that.client.SetNX(ctx, roomKey(room.Code), roomJSON, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create room: %w", err)
	}

	if !created {
		return false, nil
	}

	if _, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return queueRoomIndexes(ctx, pipe, room)
	}); err != nil {
		return false, fmt.Errorf("failed to index room: %w", err)
	}

	return true, nil
}

func (that *dbRoom) Save(ctx context.Context, room *entity.Room) error {
	if _, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return queueRoomWrite(ctx, pipe, room)
	}); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal(response, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	code, err := that.client.Get(ctx, roomIDKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	return that.GetByCode(ctx, code)
}

func (that *dbRoom) ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	codes, err := that.client.ZRangeByScore(ctx, openRoomsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list idle rooms: %w", err)
	}

	return codes, nil
}

// queueRoomWrite - queues the room document together with its indexes.
func queueRoomWrite(ctx context.Context, pipe redis.Pipeliner, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	pipe.Set(ctx, roomKey(room.Code), roomJSON, 0)

	return queueRoomIndexes(ctx, pipe, room)
}

func queueRoomIndexes(ctx context.Context, pipe redis.Pipeliner, room *entity.Room) error {
	pipe.Set(ctx, roomIDKey(room.ID), room.Code, 0)

	if room.IsTerminal() {
		pipe.ZRem(ctx, openRoomsKey, room.Code)
		return nil
	}

	pipe.ZAdd(ctx, openRoomsKey, redis.Z{
		Score:  float64(room.LastActivityAt.UnixMilli()),
		Member: room.Code,
	})

	return nil
}
