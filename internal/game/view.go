package game

import "time"

// View is the read-only surface of a GameMap consumed by AI players.
type View interface {
	Width() int
	Height() int
	Time() time.Duration
	State() MatchState
	Wrap(pos Position) Position
	TileInfo(pos Position) (Tile, bool)
	TileIsWithinMap(pos Position) bool
	TileIsWalkable(pos Position) bool
	TileHasFlame(pos Position) bool
	TileHasBomb(pos Position) bool
	TileHasLava(pos Position) bool
	DangerValue(pos Position) time.Duration
	Players() []*Player
	PlayerByNumber(n int) *Player
	BlockCount() int
	InitialBlockCount() int
	DetonatorActive(p *Player) bool
}

var _ View = (*GameMap)(nil)

// TileInfo returns a copy of the tile at pos.
func (m *GameMap) TileInfo(pos Position) (Tile, bool) {
	t := m.TileAt(pos)
	if t == nil {
		return Tile{}, false
	}
	return *t, true
}
