package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
)

type RoomHandler interface {
	CreateRoom(w http.ResponseWriter, r *http.Request)
	JoinRoom(w http.ResponseWriter, r *http.Request)
	GetRoom(w http.ResponseWriter, r *http.Request)
	GetMoves(w http.ResponseWriter, r *http.Request)
}

type roomHandler struct {
	logger *zap.Logger
	rooms  roomService
}

func NewRoomHandler(logger *zap.Logger, rooms roomService) RoomHandler {
	return &roomHandler{
		logger: logger.With(zap.String("component", "rest-rooms")),
		rooms:  rooms,
	}
}

type RoomResponse struct {
	RoomCode string       `json:"roomCode"`
	Room     *entity.Room `json:"room"`
}

type MovesResponse struct {
	RoomCode string         `json:"roomCode"`
	Moves    []*entity.Move `json:"moves"`
}

// CreateRoom - opens a waiting room with the caller on red.
func (that *roomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, that.logger, apperror.ErrAuthRequired)
		return
	}

	room, err := that.rooms.OpenRoom(r.Context(), owner)
	if err != nil {
		writeError(w, that.logger, err)
		return
	}

	writeJSON(w, that.logger, http.StatusCreated, RoomResponse{RoomCode: room.Code, Room: room})
}

// JoinRoom - seats the caller on black and starts the game.
func (that *roomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	joiner, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, that.logger, apperror.ErrAuthRequired)
		return
	}

	room, err := that.rooms.SeatPlayer(r.Context(), chi.URLParam(r, "code"), joiner)
	if err != nil {
		writeError(w, that.logger, err)
		return
	}

	writeJSON(w, that.logger, http.StatusOK, RoomResponse{RoomCode: room.Code, Room: room})
}

// GetRoom - returns the room snapshot with its move log.
func (that *roomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	info, err := that.rooms.Snapshot(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, that.logger, err)
		return
	}

	writeJSON(w, that.logger, http.StatusOK, info)
}

// GetMoves - returns the moves of the room in play order for replay.
func (that *roomHandler) GetMoves(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	info, err := that.rooms.Snapshot(r.Context(), code)
	if err != nil {
		writeError(w, that.logger, err)
		return
	}

	writeJSON(w, that.logger, http.StatusOK, MovesResponse{
		RoomCode: code,
		Moves:    info.Moves,
	})
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	appErr := apperror.From(err)

	if appErr.Kind == apperror.KindInfrastructure {
		logger.Error("request failed", zap.Error(err))
	}

	writeJSON(w, logger, statusOf(appErr.Kind), ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindAuthRequired:
		return http.StatusUnauthorized
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict, apperror.KindIllegalState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
