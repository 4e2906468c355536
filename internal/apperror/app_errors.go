package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected action.
type Kind string

const (
	KindAuthRequired   Kind = "auth_required"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindIllegalState   Kind = "illegal_state"
	KindInfrastructure Kind = "infrastructure"
)

// Error is a rejection that can be reported back to the acting connection.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (that *Error) Error() string {
	if that.Err != nil {
		return fmt.Sprintf("%s: %v", that.Message, that.Err)
	}

	return that.Message
}

func (that *Error) Unwrap() error {
	return that.Err
}

// Is matches two application errors by code, so wrapped copies still compare equal to the sentinels below.
func (that *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return that.Code == other.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrAuthRequired = newError(KindAuthRequired, "auth-required", "authentication required")

	ErrInvalidPayload = newError(KindValidation, "validation-error", "invalid payload")

	ErrRoomNotFound = newError(KindNotFound, "room-not-found", "room not found")

	ErrRoomFull      = newError(KindConflict, "room-full", "room is already full")
	ErrNotJoinable   = newError(KindConflict, "room-not-joinable", "game has already started or finished")
	ErrSelfJoin      = newError(KindConflict, "self-join-rejected", "you cannot join your own room")
	ErrAlreadyInRoom = newError(KindConflict, "already-in-room", "connection is already in a room")
	ErrNotAPlayer    = newError(KindConflict, "not-a-player", "you are not part of this game")

	ErrNotInRoom     = newError(KindIllegalState, "not-in-room", "not in room")
	ErrNotYourTurn   = newError(KindIllegalState, "not-your-turn", "not your turn")
	ErrGameNotActive = newError(KindIllegalState, "game-not-active", "game not active")

	ErrInternal           = newError(KindInfrastructure, "internal-error", "something went wrong")
	ErrCodeSpaceExhausted = newError(KindInfrastructure, "code-space-exhausted", "could not allocate a free room code")
)

// Validation returns a validation error carrying a field-specific message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: ErrInvalidPayload.Code, Message: message}
}

// Infrastructure wraps a storage or transport failure.
func Infrastructure(err error) *Error {
	return &Error{Kind: KindInfrastructure, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// From extracts the application error from err. Anything unknown is treated as an infrastructure failure.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return Infrastructure(err)
}
