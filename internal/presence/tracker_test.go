package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_BindUnbind(t *testing.T) {
	t.Run("Keeps both directions consistent", func(t *testing.T) {
		// Given: two connections in one room
		tracker := NewTracker()
		tracker.Bind("c1", "AB12CD34")
		tracker.Bind("c2", "AB12CD34")

		// Then: both are members and each maps back to the room
		assert.Equal(t, []string{"c1", "c2"}, tracker.Members("AB12CD34"))
		code, ok := tracker.RoomOf("c2")
		assert.True(t, ok)
		assert.Equal(t, "AB12CD34", code)
	})

	t.Run("Drops the room entry when the last connection leaves", func(t *testing.T) {
		// Given: one connection in a room
		tracker := NewTracker()
		tracker.Bind("c1", "AB12CD34")

		// When: it is unbound
		code, ok := tracker.Unbind("c1")

		// Then: the room is gone from the index
		assert.True(t, ok)
		assert.Equal(t, "AB12CD34", code)
		assert.Empty(t, tracker.Members("AB12CD34"))
		assert.Equal(t, 0, tracker.Rooms())
	})

	t.Run("Unbinding an unknown connection is a no-op", func(t *testing.T) {
		tracker := NewTracker()

		_, ok := tracker.Unbind("ghost")

		assert.False(t, ok)
	})

	t.Run("Rebinding moves the connection", func(t *testing.T) {
		// Given: a connection in room A
		tracker := NewTracker()
		tracker.Bind("c1", "room-a")

		// When: it binds to room B
		tracker.Bind("c1", "room-b")

		// Then: it is only in room B
		assert.Empty(t, tracker.Members("room-a"))
		assert.Equal(t, []string{"c1"}, tracker.Members("room-b"))
	})
}

func TestTracker_Concurrent(t *testing.T) {
	// Given: many connections binding and unbinding at once
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			connID := fmt.Sprintf("c%d", i)
			code := fmt.Sprintf("room-%d", i%5)

			tracker.Bind(connID, code)
			_ = tracker.Members(code)
			if i%2 == 0 {
				tracker.Unbind(connID)
			}
		}(i)
	}
	wg.Wait()

	// Then: exactly the odd connections remain
	total := 0
	for r := 0; r < 5; r++ {
		total += len(tracker.Members(fmt.Sprintf("room-%d", r)))
	}
	assert.Equal(t, 50, total)
}
