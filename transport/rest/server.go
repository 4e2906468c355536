package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type roomService interface {
	Snapshot(ctx context.Context, code string) (*usecase.RoomInfo, error)
	OpenRoom(ctx context.Context, owner *entity.Identity) (*entity.Room, error)
	SeatPlayer(ctx context.Context, code string, joiner *entity.Identity) (*entity.Room, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.Identity, error)
	AllowAnonymous() bool
}

// NewRouter - builds the HTTP API.
func NewRouter(logger *zap.Logger, rooms roomService, auth authenticator, checks ...HealthCheck) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/ping", NewPingHandler(logger, checks...).PingHandler)

	roomHandler := NewRoomHandler(logger, rooms)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(requireIdentity(logger, auth))

		r.Post("/rooms", roomHandler.CreateRoom)
		r.Post("/rooms/{code}/join", roomHandler.JoinRoom)
		r.Get("/rooms/{code}", roomHandler.GetRoom)
		r.Get("/rooms/{code}/moves", roomHandler.GetMoves)
	})

	return router
}

// Start - serves the HTTP API until ctx is done.
func Start(ctx context.Context, logger *zap.Logger, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
