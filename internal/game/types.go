package game

import (
	"math"
)

// Position is an integer tile coordinate on the map.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

// Add returns the neighbouring position in direction d.
func (p Position) Add(d Direction) Position {
	dx, dy := d.Vector()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Step returns the position n tiles away in direction d.
func (p Position) Step(d Direction, n int) Position {
	dx, dy := d.Vector()
	return Position{X: p.X + dx*n, Y: p.Y + dy*n}
}

// Center returns the float point in the middle of the tile.
func (p Position) Center() Point {
	return Point{X: float64(p.X) + 0.5, Y: float64(p.Y) + 0.5}
}

// Point is a float position measured in tiles: tile (x,y) spans
// [x,x+1) on the horizontal axis and [y,y+1) on the vertical one.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Tile converts the point to the tile it lies on.
func (p Point) Tile() Position {
	return Position{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// NearTileCenter reports whether the point is within 0.2 of its tile centre
// on both axes.
func (p Point) NearTileCenter() bool {
	fx := p.X - math.Floor(p.X)
	fy := p.Y - math.Floor(p.Y)
	return fx > 0.2 && fx < 0.8 && fy > 0.2 && fy < 0.8
}

// Direction represents one of the four cardinal directions. The numeric order
// (up, right, down, left) is the fixed tie-break order used by the AI.
type Direction int

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// Directions lists the cardinal directions in tie-break order.
var Directions = [4]Direction{DirUp, DirRight, DirDown, DirLeft}

// Vector returns the unit step of the direction.
func (d Direction) Vector() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirRight:
		return 1, 0
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Horizontal reports whether the direction moves along the X axis.
func (d Direction) Horizontal() bool {
	return d == DirRight || d == DirLeft
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Action is a discrete input produced by a human key map or by the AI.
type Action int

const (
	ActionUp Action = iota
	ActionRight
	ActionDown
	ActionLeft
	ActionBomb
	ActionSpecial
	ActionBombDouble
)

// MovementActions lists the four movement actions in direction order.
var MovementActions = [4]Action{ActionUp, ActionRight, ActionDown, ActionLeft}

// Direction returns the movement direction of the action, if it has one.
func (a Action) Direction() (Direction, bool) {
	if a >= ActionUp && a <= ActionLeft {
		return Direction(a), true
	}
	return 0, false
}

// IsMovement reports whether the action is one of the four moves.
func (a Action) IsMovement() bool {
	_, ok := a.Direction()
	return ok
}

// Opposite returns the reversed movement action; other actions are returned unchanged.
func (a Action) Opposite() Action {
	if d, ok := a.Direction(); ok {
		return DirectionAction(d.Opposite())
	}
	return a
}

// DirectionAction returns the movement action for a direction.
func DirectionAction(d Direction) Action {
	return Action(d)
}

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionRight:
		return "right"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionBomb:
		return "bomb"
	case ActionSpecial:
		return "special"
	case ActionBombDouble:
		return "bomb double"
	default:
		return "unknown"
	}
}

// PlayerAction pairs an action with the number of the player performing it.
type PlayerAction struct {
	Player int    `json:"player" msgpack:"player"`
	Action Action `json:"action" msgpack:"action"`
}
