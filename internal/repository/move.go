package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type MoveRepository interface {
	Count(ctx context.Context, code string) (int, error)
	// Append stores the move and the room it advanced in one transaction.
	Append(ctx context.Context, room *entity.Room, move *entity.Move) error
	// List returns the moves of a room ordered by sequence.
	List(ctx context.Context, code string) ([]*entity.Move, error)
}

type dbMove struct {
	client *redis.Client
}

func NewMoveRepository(client *redis.Client) MoveRepository {
	return &dbMove{
		client: client,
	}
}

func movesKey(code string) string {
	return roomKey(code) + ":moves"
}

func (that *dbMove) Count(ctx context.Context, code string) (int, error) {
	count, err := that.client.LLen(ctx, movesKey(code)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count moves: %w", err)
	}

	return int(count), nil
}

func (that *dbMove) Append(ctx context.Context, room *entity.Room, move *entity.Move) error {
	moveJSON, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("could not marshal move: %w", err)
	}

	if _, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, movesKey(room.Code), moveJSON)
		return queueRoomWrite(ctx, pipe, room)
	}); err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

func (that *dbMove) List(ctx context.Context, code string) ([]*entity.Move, error) {
	response, err := that.client.LRange(ctx, movesKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	moves := make([]*entity.Move, 0, len(response))
	for _, raw := range response {
		var move entity.Move
		if err = json.Unmarshal([]byte(raw), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}

		moves = append(moves, &move)
	}

	return moves, nil
}
