package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/pkg"
	"github.com/rocketscienceinc/xiangqi-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type identityBinder interface {
	Bind(ctx context.Context, connID, token string) *entity.Binding
}

type sessionCoordinator interface {
	CreateRoom(ctx context.Context, binding *entity.Binding) error
	JoinRoom(ctx context.Context, binding *entity.Binding, input usecase.RoomCodeInput) error
	RejoinRoom(ctx context.Context, binding *entity.Binding, input usecase.RoomCodeInput) error
	LeaveRoom(ctx context.Context, binding *entity.Binding, input usecase.RoomCodeInput) error
	SubmitMove(ctx context.Context, binding *entity.Binding, input *entity.MoveInput) error
	Resign(ctx context.Context, binding *entity.Binding) error
	RoomInfo(ctx context.Context, binding *entity.Binding, input usecase.RoomCodeInput) error
	Disconnect(ctx context.Context, binding *entity.Binding)
}

type Options struct {
	SendBuffer     int
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

type handlerFunc func(ctx context.Context, binding *entity.Binding, message *Message) error

type Server struct {
	logger *zap.Logger
	opts   Options

	hub      *Hub
	binder   identityBinder
	sessions sessionCoordinator

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func New(logger *zap.Logger, opts Options, hub *Hub, binder identityBinder, sessions sessionCoordinator) *Server {
	server := &Server{
		logger:   logger.With(zap.String("component", "ws-server")),
		opts:     opts,
		hub:      hub,
		binder:   binder,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionRejoinRoom] = server.handleRejoinRoom
	server.handlers[ActionLeaveRoom] = server.handleLeaveRoom
	server.handlers[ActionSubmitMove] = server.handleSubmitMove
	server.handlers[ActionResign] = server.handleResign
	server.handlers[ActionRoomInfo] = server.handleRoomInfo

	return server
}

// Handler - returns the HTTP handler serving /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.ServeWS(ctx, w, r)
	})

	return mux
}

// Start - serves WebSocket connections until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		that.hub.Close()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", zap.Error(err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeWS - binds the connection identity, upgrades the request and runs the read loop.
func (that *Server) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With(zap.String("method", "ServeWS"))

	connID := pkg.GenerateID()
	binding := that.binder.Bind(r.Context(), connID, pkg.TokenFromRequest(r))

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	connection := newConnection(that.logger, connID, conn, that.opts.SendBuffer)
	that.hub.register(connection)

	go connection.writePump(that.opts)

	log.Info("connection established", zap.String("conn_id", connID), zap.Bool("authenticated", binding.Authenticated))

	that.hub.SendToConnection(connID, EventConnected, ConnectedEvent{
		ConnectionID:  connID,
		Authenticated: binding.Authenticated,
		Identity:      binding.Identity,
	})

	connection.readPump(that.opts, func(messageType int, message []byte) {
		if messageType != websocket.TextMessage {
			that.reject(binding, "", apperror.Validation("messages must be text frames"))
			return
		}

		that.handleMessage(ctx, binding, message)
	})

	that.sessions.Disconnect(ctx, binding)
	that.hub.unregister(connection)

	log.Info("connection closed", zap.String("conn_id", connID))
}
