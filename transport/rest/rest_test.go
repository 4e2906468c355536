package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/service"
	"github.com/rocketscienceinc/xiangqi-backend/internal/usecase"
)

var (
	errRedisDown    = errors.New("redis down")
	errPostgresDown = errors.New("postgres down")

	testTime = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
)

type mockRoomService struct {
	mock.Mock
}

func (that *mockRoomService) Snapshot(ctx context.Context, code string) (*usecase.RoomInfo, error) {
	args := that.Called(ctx, code)
	info, _ := args.Get(0).(*usecase.RoomInfo)

	return info, args.Error(1)
}

func (that *mockRoomService) OpenRoom(ctx context.Context, owner *entity.Identity) (*entity.Room, error) {
	args := that.Called(ctx, owner)
	room, _ := args.Get(0).(*entity.Room)

	return room, args.Error(1)
}

func (that *mockRoomService) SeatPlayer(ctx context.Context, code string, joiner *entity.Identity) (*entity.Room, error) {
	args := that.Called(ctx, code, joiner)
	room, _ := args.Get(0).(*entity.Room)

	return room, args.Error(1)
}

type stubAuthenticator struct {
	tokens         map[string]*entity.Identity
	allowAnonymous bool
	failure        error
}

func (that *stubAuthenticator) Authenticate(_ context.Context, token string) (*entity.Identity, error) {
	if that.failure != nil {
		return nil, that.failure
	}

	if token == "" {
		return nil, service.ErrNoToken
	}

	identity, ok := that.tokens[token]
	if !ok {
		return nil, service.ErrInvalidToken
	}

	return identity, nil
}

func (that *stubAuthenticator) AllowAnonymous() bool {
	return that.allowAnonymous
}

func roomInfo() *usecase.RoomInfo {
	room := entity.NewRoom("id-1", "AB12CD34", &entity.Identity{ID: "u1", DisplayName: "alice"}, testTime)
	move := &entity.Move{ID: "m1", RoomCode: "AB12CD34", Sequence: 1, Piece: "C", Side: entity.SideRed, CreatedAt: testTime}

	return &usecase.RoomInfo{
		Room:      room,
		Moves:     []*entity.Move{move},
		MoveCount: 1,
	}
}

func serve(handler http.Handler, target, token string) *httptest.ResponseRecorder {
	return serveMethod(handler, http.MethodGet, target, token)
}

func serveMethod(handler http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestRouter_Ping(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		router := NewRouter(zap.NewNop(), &mockRoomService{}, &stubAuthenticator{}, func(context.Context) error { return nil })

		rec := serve(router, "/ping", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Storage down", func(t *testing.T) {
		router := NewRouter(zap.NewNop(), &mockRoomService{}, &stubAuthenticator{}, func(context.Context) error { return errRedisDown })

		rec := serve(router, "/ping", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRouter_GetRoom(t *testing.T) {
	auth := &stubAuthenticator{tokens: map[string]*entity.Identity{"good": {ID: "u1", DisplayName: "alice"}}}

	t.Run("Returns the snapshot", func(t *testing.T) {
		// Given: a stored room with one move
		rooms := &mockRoomService{}
		rooms.On("Snapshot", mock.Anything, "AB12CD34").Return(roomInfo(), nil).Once()

		// When: the room is requested with a valid token
		rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/AB12CD34", "good")

		// Then: room and moves are returned
		require.Equal(t, http.StatusOK, rec.Code)

		var body usecase.RoomInfo
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "AB12CD34", body.Room.Code)
		assert.Equal(t, 1, body.MoveCount)
		rooms.AssertExpectations(t)
	})

	t.Run("Unknown room is 404", func(t *testing.T) {
		rooms := &mockRoomService{}
		rooms.On("Snapshot", mock.Anything, "ZZZZZZZZ").Return(nil, apperror.ErrRoomNotFound).Once()

		rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/ZZZZZZZZ", "good")

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "room-not-found", body.Code)
	})

	t.Run("Storage failure is 500 without details", func(t *testing.T) {
		rooms := &mockRoomService{}
		rooms.On("Snapshot", mock.Anything, "AB12CD34").Return(nil, errRedisDown).Once()

		rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/AB12CD34", "good")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "redis")
	})

	t.Run("Missing token is 401", func(t *testing.T) {
		rooms := &mockRoomService{}

		rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/AB12CD34", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rooms.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})

	t.Run("Unknown token is 401", func(t *testing.T) {
		rooms := &mockRoomService{}

		rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/AB12CD34", "forged")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rooms.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})

	t.Run("Identity store failure is 500, not 401", func(t *testing.T) {
		// Given: the identity store is unreachable
		rooms := &mockRoomService{}
		failing := &stubAuthenticator{
			failure:        fmt.Errorf("failed to get identity: %w", errPostgresDown),
			allowAnonymous: true,
		}

		// When: a request with a bearer token arrives
		rec := serve(NewRouter(zap.NewNop(), rooms, failing), "/api/v1/rooms/AB12CD34", "good")

		// Then: it fails as an internal error without details and the room is not read
		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "internal-error", body.Code)
		assert.NotContains(t, body.Message, "postgres")
		rooms.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
	})

	t.Run("Anonymous reads are allowed when enabled", func(t *testing.T) {
		rooms := &mockRoomService{}
		rooms.On("Snapshot", mock.Anything, "AB12CD34").Return(roomInfo(), nil).Once()

		rec := serve(NewRouter(zap.NewNop(), rooms, &stubAuthenticator{allowAnonymous: true}), "/api/v1/rooms/AB12CD34", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRouter_GetMoves(t *testing.T) {
	rooms := &mockRoomService{}
	rooms.On("Snapshot", mock.Anything, "AB12CD34").Return(roomInfo(), nil).Once()
	auth := &stubAuthenticator{tokens: map[string]*entity.Identity{"good": {ID: "u1"}}}

	rec := serve(NewRouter(zap.NewNop(), rooms, auth), "/api/v1/rooms/AB12CD34/moves", "good")

	require.Equal(t, http.StatusOK, rec.Code)

	var body MovesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "AB12CD34", body.RoomCode)
	require.Len(t, body.Moves, 1)
	assert.Equal(t, 1, body.Moves[0].Sequence)
}

func TestIdentityFrom(t *testing.T) {
	// Given: a handler that echoes the resolved identity
	auth := &stubAuthenticator{tokens: map[string]*entity.Identity{"good": {ID: "u1", DisplayName: "alice"}}}

	var seen *entity.Identity
	handler := requireIdentity(zap.NewNop(), auth)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
	}))

	// When: a request carries a valid token
	serve(handler, "/api/v1/rooms/AB12CD34", "good")

	// Then: the identity is available downstream
	require.NotNil(t, seen)
	assert.Equal(t, "alice", seen.DisplayName)
}

func TestRouter_CreateRoom(t *testing.T) {
	alice := &entity.Identity{ID: "u1", DisplayName: "alice"}
	auth := &stubAuthenticator{tokens: map[string]*entity.Identity{"good": alice}}

	t.Run("Opens a room for the caller", func(t *testing.T) {
		// Given: the caller is alice
		rooms := &mockRoomService{}
		rooms.On("OpenRoom", mock.Anything, alice).Return(entity.NewRoom("id-1", "AB12CD34", alice, testTime), nil).Once()

		// When: a room is created
		rec := serveMethod(NewRouter(zap.NewNop(), rooms, auth), http.MethodPost, "/api/v1/rooms", "good")

		// Then: it is created with alice on red
		require.Equal(t, http.StatusCreated, rec.Code)

		var body RoomResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "AB12CD34", body.RoomCode)
		assert.Equal(t, entity.StatusWaiting, body.Room.Status)
		assert.Equal(t, "u1", body.Room.Players.Red.ID)
		rooms.AssertExpectations(t)
	})

	t.Run("Anonymous caller cannot create", func(t *testing.T) {
		rooms := &mockRoomService{}

		rec := serveMethod(NewRouter(zap.NewNop(), rooms, &stubAuthenticator{allowAnonymous: true}), http.MethodPost, "/api/v1/rooms", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rooms.AssertNotCalled(t, "OpenRoom", mock.Anything, mock.Anything)
	})

	t.Run("Code space exhausted is 500", func(t *testing.T) {
		rooms := &mockRoomService{}
		rooms.On("OpenRoom", mock.Anything, alice).Return(nil, apperror.ErrCodeSpaceExhausted).Once()

		rec := serveMethod(NewRouter(zap.NewNop(), rooms, auth), http.MethodPost, "/api/v1/rooms", "good")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "code-space-exhausted", body.Code)
	})
}

func TestRouter_JoinRoom(t *testing.T) {
	alice := &entity.Identity{ID: "u1", DisplayName: "alice"}
	bob := &entity.Identity{ID: "u2", DisplayName: "bob"}
	auth := &stubAuthenticator{tokens: map[string]*entity.Identity{"alice": alice, "bob": bob}}

	t.Run("Seats the caller on black", func(t *testing.T) {
		// Given: a waiting room owned by alice
		room := entity.NewRoom("id-1", "AB12CD34", alice, testTime)
		require.NoError(t, room.Seat(bob, testTime))

		rooms := &mockRoomService{}
		rooms.On("SeatPlayer", mock.Anything, "AB12CD34", bob).Return(room, nil).Once()

		// When: bob joins
		rec := serveMethod(NewRouter(zap.NewNop(), rooms, auth), http.MethodPost, "/api/v1/rooms/AB12CD34/join", "bob")

		// Then: the game is active with bob on black
		require.Equal(t, http.StatusOK, rec.Code)

		var body RoomResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, entity.StatusActive, body.Room.Status)
		assert.Equal(t, "u2", body.Room.Players.Black.ID)
		rooms.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		token  string
		err    error
		status int
		code   string
	}{
		{name: "Unknown room", token: "bob", err: apperror.ErrRoomNotFound, status: http.StatusNotFound, code: "room-not-found"},
		{name: "Self join", token: "alice", err: apperror.ErrSelfJoin, status: http.StatusConflict, code: "self-join-rejected"},
		{name: "Room full", token: "bob", err: apperror.ErrRoomFull, status: http.StatusConflict, code: "room-full"},
		{name: "Not joinable", token: "bob", err: apperror.ErrNotJoinable, status: http.StatusConflict, code: "room-not-joinable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := &mockRoomService{}
			rooms.On("SeatPlayer", mock.Anything, "AB12CD34", auth.tokens[tt.token]).
				Return(nil, fmt.Errorf("failed to join room: %w", tt.err)).Once()

			rec := serveMethod(NewRouter(zap.NewNop(), rooms, auth), http.MethodPost, "/api/v1/rooms/AB12CD34/join", tt.token)

			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
		})
	}

	t.Run("Missing token is 401", func(t *testing.T) {
		rooms := &mockRoomService{}

		rec := serveMethod(NewRouter(zap.NewNop(), rooms, auth), http.MethodPost, "/api/v1/rooms/AB12CD34/join", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rooms.AssertNotCalled(t, "SeatPlayer", mock.Anything, mock.Anything, mock.Anything)
	})
}
