package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type idleRoomLister interface {
	ListIdleSince(ctx context.Context, cutoff time.Time) ([]string, error)
}

type idleRoomAborter interface {
	AbortIdle(ctx context.Context, code string, cutoff time.Time) (bool, error)
}

// Reaper periodically aborts rooms that saw no activity for idleTimeout.
type Reaper struct {
	logger *zap.Logger

	rooms    idleRoomLister
	sessions idleRoomAborter

	interval    time.Duration
	idleTimeout time.Duration
	now         func() time.Time
}

func NewReaper(logger *zap.Logger, rooms idleRoomLister, sessions idleRoomAborter, interval, idleTimeout time.Duration) *Reaper {
	return &Reaper{
		logger:      logger.With(zap.String("component", "room-reaper")),
		rooms:       rooms,
		sessions:    sessions,
		interval:    interval,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// Enabled - reports whether an idle timeout is configured.
func (that *Reaper) Enabled() bool {
	return that.idleTimeout > 0 && that.interval > 0
}

// Run - sweeps on every tick until ctx is done.
func (that *Reaper) Run(ctx context.Context) {
	log := that.logger.With(zap.String("method", "Run"))

	if !that.Enabled() {
		log.Info("room reaper disabled")
		return
	}

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			aborted, err := that.Sweep(ctx)
			if err != nil {
				log.Error("sweep failed", zap.Error(err))
				continue
			}

			if aborted > 0 {
				log.Info("idle rooms aborted", zap.Int("count", aborted))
			}
		}
	}
}

// Sweep - aborts every room idle for longer than the timeout and returns how many were aborted.
func (that *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := that.now().Add(-that.idleTimeout)

	codes, err := that.rooms.ListIdleSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list idle rooms: %w", err)
	}

	aborted := 0
	for _, code := range codes {
		ok, err := that.sessions.AbortIdle(ctx, code, cutoff)
		if err != nil {
			that.logger.Warn("failed to abort idle room", zap.String("room_code", code), zap.Error(err))
			continue
		}

		if ok {
			aborted++
		}
	}

	return aborted, nil
}
