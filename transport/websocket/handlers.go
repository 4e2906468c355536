package websocket

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/rocketscienceinc/xiangqi-backend/internal/apperror"
	"github.com/rocketscienceinc/xiangqi-backend/internal/entity"
	"github.com/rocketscienceinc/xiangqi-backend/internal/usecase"
)

// handleMessage - dispatches one client message and reports any rejection back to the sender.
func (that *Server) handleMessage(ctx context.Context, binding *entity.Binding, raw []byte) {
	var message Message
	if err := json.Unmarshal(raw, &message); err != nil {
		that.reject(binding, "", apperror.Validation("malformed message"))
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		that.reject(binding, message.Action, apperror.Validation("unknown action"))
		return
	}

	if err := handler(ctx, binding, &message); err != nil {
		that.reject(binding, message.Action, err)
	}
}

func (that *Server) reject(binding *entity.Binding, action string, err error) {
	appErr := apperror.From(err)

	if appErr.Kind == apperror.KindInfrastructure {
		that.logger.Error("action failed",
			zap.String("conn_id", binding.ConnID),
			zap.String("action", action),
			zap.Error(err),
		)
	}

	that.hub.SendToConnection(binding.ConnID, EventActionRejected, ActionRejectedEvent{
		Action:  action,
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func (that *Server) handleCreateRoom(ctx context.Context, binding *entity.Binding, _ *Message) error {
	return that.sessions.CreateRoom(ctx, binding)
}

func (that *Server) handleJoinRoom(ctx context.Context, binding *entity.Binding, message *Message) error {
	input, err := decodeRoomCode(message)
	if err != nil {
		return err
	}

	return that.sessions.JoinRoom(ctx, binding, input)
}

func (that *Server) handleRejoinRoom(ctx context.Context, binding *entity.Binding, message *Message) error {
	input, err := decodeRoomCode(message)
	if err != nil {
		return err
	}

	return that.sessions.RejoinRoom(ctx, binding, input)
}

func (that *Server) handleLeaveRoom(ctx context.Context, binding *entity.Binding, message *Message) error {
	input, err := decodeRoomCode(message)
	if err != nil {
		return err
	}

	return that.sessions.LeaveRoom(ctx, binding, input)
}

func (that *Server) handleSubmitMove(ctx context.Context, binding *entity.Binding, message *Message) error {
	var input entity.MoveInput
	if err := decodePayload(message, &input); err != nil {
		return err
	}

	return that.sessions.SubmitMove(ctx, binding, &input)
}

func (that *Server) handleResign(ctx context.Context, binding *entity.Binding, _ *Message) error {
	return that.sessions.Resign(ctx, binding)
}

func (that *Server) handleRoomInfo(ctx context.Context, binding *entity.Binding, message *Message) error {
	input, err := decodeRoomCode(message)
	if err != nil {
		return err
	}

	return that.sessions.RoomInfo(ctx, binding, input)
}

func decodeRoomCode(message *Message) (usecase.RoomCodeInput, error) {
	var input usecase.RoomCodeInput
	err := decodePayload(message, &input)

	return input, err
}

// decodePayload - an absent payload decodes to the zero value.
func decodePayload(message *Message, target any) error {
	if len(message.Payload) == 0 || string(message.Payload) == "null" {
		return nil
	}

	if err := json.Unmarshal(message.Payload, target); err != nil {
		return apperror.Validation("invalid payload")
	}

	return nil
}
