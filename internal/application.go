package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/config"
	"github.com/rocketscienceinc/xiangqi-backend/internal/presence"
	"github.com/rocketscienceinc/xiangqi-backend/internal/repository"
	"github.com/rocketscienceinc/xiangqi-backend/internal/repository/storage"
	"github.com/rocketscienceinc/xiangqi-backend/internal/service"
	"github.com/rocketscienceinc/xiangqi-backend/internal/usecase"
	"github.com/rocketscienceinc/xiangqi-backend/transport/rest"
	"github.com/rocketscienceinc/xiangqi-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *zap.Logger, conf *config.Config) error {
	log := logger.With(zap.String("component", "app"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedis(ctx, storage.RedisOptions{
		Addr:     redisAddrString,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", zap.Error(err))
		}
	}()

	postgres, err := storage.NewPostgres(ctx, conf.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("could not connect to postgres: %w", err)
	}
	defer postgres.Close()

	if err = postgres.Init(ctx); err != nil {
		return fmt.Errorf("could not init postgres: %w", err)
	}

	roomRepo := repository.NewRoomRepository(redisStorage)
	moveRepo := repository.NewMoveRepository(redisStorage)
	identityRepo := repository.NewIdentityRepository(postgres.Pool)

	authService := service.NewAuthService(conf.Auth.JWTSecretKey, conf.Auth.TokenTTL)
	binder := service.NewIdentityBinder(logger, authService, identityRepo, conf.Auth.AllowAnonymousPlay)
	registry := service.NewRoomRegistry(logger, roomRepo, conf.Rooms.CodeAttempts)

	tracker := presence.NewTracker()
	hub := websocket.NewHub(logger, tracker)
	sessions := usecase.NewSessionCoordinator(logger, registry, moveRepo, tracker, hub, conf.Auth.AllowAnonymousPlay)

	reaper := usecase.NewReaper(logger, roomRepo, sessions, conf.RoomReaper.Interval, conf.RoomReaper.IdleTimeout)
	go reaper.Run(ctx)

	router := rest.NewRouter(logger, sessions, binder,
		func(ctx context.Context) error { return redisStorage.Ping(ctx).Err() },
		func(ctx context.Context) error { return postgres.Pool.Ping(ctx) },
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", zap.String("port", conf.HTTPPort))
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", zap.Error(httpErr))
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", zap.String("port", conf.SocketPort))
		wsServer := websocket.New(logger, websocket.Options{
			SendBuffer:     conf.WebSocket.SendBuffer,
			PingInterval:   conf.WebSocket.PingInterval,
			PongWait:       conf.WebSocket.PongWait,
			WriteWait:      conf.WebSocket.WriteWait,
			MaxMessageSize: conf.WebSocket.MaxMessageSize,
		}, hub, binder, sessions)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", zap.Error(wsErr))
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
