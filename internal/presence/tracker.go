// Package presence keeps the live connection <-> room index used for fan-out and cleanup.
// It says who is reachable, never who may act in a room.
package presence

import (
	"sort"
	"sync"
)

type Tracker struct {
	mu          sync.RWMutex
	connToRoom  map[string]string
	roomToConns map[string]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		connToRoom:  make(map[string]string),
		roomToConns: make(map[string]map[string]struct{}),
	}
}

// Bind - attaches the connection to the room, moving it out of any previous room.
func (that *Tracker) Bind(connID, code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if previous, ok := that.connToRoom[connID]; ok {
		if previous == code {
			return
		}
		that.removeLocked(connID, previous)
	}

	conns, ok := that.roomToConns[code]
	if !ok {
		conns = make(map[string]struct{})
		that.roomToConns[code] = conns
	}

	conns[connID] = struct{}{}
	that.connToRoom[connID] = code
}

// Unbind - detaches the connection and returns the room it was in.
func (that *Tracker) Unbind(connID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, ok := that.connToRoom[connID]
	if !ok {
		return "", false
	}

	that.removeLocked(connID, code)

	return code, true
}

func (that *Tracker) removeLocked(connID, code string) {
	delete(that.connToRoom, connID)

	conns := that.roomToConns[code]
	delete(conns, connID)

	// only the in-memory entry goes away, the persisted room stays
	if len(conns) == 0 {
		delete(that.roomToConns, code)
	}
}

func (that *Tracker) RoomOf(connID string) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	code, ok := that.connToRoom[connID]

	return code, ok
}

// Members - returns a sorted snapshot of the connections present in the room.
func (that *Tracker) Members(code string) []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conns := that.roomToConns[code]
	members := make([]string, 0, len(conns))
	for connID := range conns {
		members = append(members, connID)
	}

	sort.Strings(members)

	return members
}

// Rooms - returns how many rooms have at least one live connection.
func (that *Tracker) Rooms() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.roomToConns)
}
