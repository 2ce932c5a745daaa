package game

import "time"

// FlameDirection describes the shape of a flame segment. FlameAll marks the
// tile the explosion started on.
type FlameDirection int

const (
	FlameAll FlameDirection = iota
	FlameHorizontal
	FlameVertical
	FlameUp
	FlameRight
	FlameDown
	FlameLeft
)

func (d FlameDirection) horizontal() bool {
	return d == FlameHorizontal || d == FlameLeft || d == FlameRight
}

func (d FlameDirection) vertical() bool {
	return d == FlameVertical || d == FlameUp || d == FlameDown
}

func flameEnd(d Direction) FlameDirection {
	switch d {
	case DirUp:
		return FlameUp
	case DirRight:
		return FlameRight
	case DirDown:
		return FlameDown
	default:
		return FlameLeft
	}
}

func flameBody(d Direction) FlameDirection {
	if d.Horizontal() {
		return FlameHorizontal
	}
	return FlameVertical
}

func mergeFlameDirections(a, b FlameDirection) FlameDirection {
	switch {
	case a == b:
		return a
	case a.horizontal() && b.horizontal():
		return FlameHorizontal
	case a.vertical() && b.vertical():
		return FlameVertical
	default:
		return FlameAll
	}
}

// Flame is a burning hazard on a tile.
type Flame struct {
	Owner         *Player
	TimeToBurnout time.Duration
	Direction     FlameDirection

	tick uint64
}
