package pkg

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// RoomCodeAlphabet is URL-safe and case-sensitive.
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	RoomCodeLength   = 8
)

// GenerateRoomCode - generates a short unguessable room code.
func GenerateRoomCode() (string, error) {
	code, err := gonanoid.Generate(RoomCodeAlphabet, RoomCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate room code: %w", err)
	}

	return code, nil
}

// GenerateID - generates an identifier for rooms, moves and connections.
func GenerateID() string {
	return uuid.NewString()
}
