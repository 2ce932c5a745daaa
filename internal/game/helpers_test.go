package game

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const tick = 50 * time.Millisecond

// newTestMap builds a playing round from rows of tile codes. Player slots
// default to one team per player.
func newTestMap(t *testing.T, items string, rows []string, slots ...Slot) *GameMap {
	t.Helper()
	def, err := ParseMap("test;"+items+";;"+strings.Join(rows, "\n"), len(rows[0]), len(rows))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(1))
	opts.TimeLimit = 0
	m, err := NewGameMap(def, slots, opts)
	require.NoError(t, err)

	m.setState(MatchPlaying)
	m.DrainSoundEvents()
	m.DrainAnimationEvents()
	return m
}

func slots(n int) []Slot {
	out := make([]Slot, n)
	for i := range out {
		out[i] = Slot{Number: i, Team: i}
	}
	return out
}

func flameAt(m *GameMap, x, y int) bool {
	return m.TileHasFlame(Position{X: x, Y: y})
}

func hasSound(events []SoundEvent, kind SoundKind) bool {
	for _, e := range events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
