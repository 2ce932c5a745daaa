package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amalg/go-bombman/internal/discovery"
)

func TestPickRoom(t *testing.T) {
	rooms := []discovery.RoomInfo{
		{RoomName: "busy", Started: true, MaxPlayers: 4},
		{RoomName: "full", PlayerCount: 4, MaxPlayers: 4},
		{RoomName: "open", PlayerCount: 1, MaxPlayers: 4},
	}

	r, ok := pickRoom(rooms, "")
	assert.True(t, ok)
	assert.Equal(t, "open", r.RoomName)

	r, ok = pickRoom(rooms, "busy")
	assert.True(t, ok)
	assert.Equal(t, "busy", r.RoomName)

	_, ok = pickRoom(rooms, "nope")
	assert.False(t, ok)
	_, ok = pickRoom(rooms[:2], "")
	assert.False(t, ok)
}
