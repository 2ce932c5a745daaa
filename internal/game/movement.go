package game

import (
	"math"
	"time"

	"github.com/zyedidia/generic/mapset"
)

// updatePlayers applies one tick of input to every living player, in player
// number order. claims records the tiles entered this tick: a player moving
// onto a tile already claimed by a lower-numbered player stays where it was.
func (m *GameMap) updatePlayers(dt time.Duration, actions []PlayerAction) {
	byPlayer := make(map[int][]Action)
	for _, a := range actions {
		byPlayer[a.Player] = append(byPlayer[a.Player], a.Action)
	}

	claims := mapset.New[Position]()
	for _, p := range m.players {
		if p.IsDead() {
			continue
		}
		p.stateTime += dt
		m.reactToInputs(p, byPlayer[p.number], dt, &claims)
	}
}

func (m *GameMap) reactToInputs(p *Player, actions []Action, dt time.Duration, claims *mapset.Set[Position]) {
	switch p.state {
	case StateInAir:
		if p.stateTime >= JumpDuration {
			p.pos = p.landing.Center()
			p.setState(StateStanding)
			m.dangerValid = false
		}
		return
	case StateTeleporting:
		p.setState(StateStanding)
		return
	case StateBoxing, StateThrowing:
		if p.stateTime < AbilityDuration {
			return
		}
		p.setState(StateStanding)
	}

	var (
		move    Direction
		moving  bool
		layBomb bool
	)
	for _, a := range actions {
		if p.disease == DiseaseReverseControls {
			a = a.Opposite()
		}
		if d, ok := a.Direction(); ok {
			if !moving {
				move, moving = d, true
			}
			continue
		}
		switch a {
		case ActionBomb:
			layBomb = true
		case ActionBombDouble:
			m.bombDouble(p)
		case ActionSpecial:
			m.special(p)
		}
	}
	if layBomb || p.disease == DiseaseDiarrhea {
		m.layBomb(p)
	}

	if t := m.TileAt(p.Tile()); t != nil && t.Kind == TileFloor {
		if d, ok := t.Special.ArrowDirection(); ok {
			move, moving = d, true
		}
	}

	if !moving {
		if p.state == StateWalking {
			p.setState(StateStanding)
		}
		return
	}
	m.movePlayer(p, move, dt, claims)
}

// bombDouble throws the bomb the player stands on when it has the throwing
// glove, otherwise lays a multibomb line.
func (m *GameMap) bombDouble(p *Player) {
	if b := m.bombAt(p.Tile()); b != nil {
		if p.CanThrow() {
			m.sendFlying(b, p.Tile().Step(p.dir, BoxThrowDistance))
			p.setState(StateThrowing)
			m.sound(SoundEvent{Kind: SoundThrow})
		}
		return
	}
	if p.disease == DiseaseNoBomb {
		return
	}
	m.layMultibomb(p)
}

// special fires the player's detonator bombs if any are armed, otherwise
// boxes the bomb in front of the player.
func (m *GameMap) special(p *Player) {
	if m.DetonatorActive(p) {
		for _, b := range m.bombs {
			if b.Owner == p && b.HasDetonator() {
				b.triggered = true
			}
		}
		m.dangerValid = false
		return
	}
	if !p.CanBox() {
		return
	}
	forward := m.Wrap(p.ForwardTile())
	b := m.bombAt(forward)
	if b == nil {
		return
	}
	m.sendFlying(b, forward.Step(p.dir, BoxThrowDistance))
	p.setState(StateBoxing)
	m.sound(SoundEvent{Kind: SoundThrow})
}

// DetonatorActive reports whether the player has a bomb waiting for its
// detonator.
func (m *GameMap) DetonatorActive(p *Player) bool {
	for _, b := range m.bombs {
		if b.Owner == p && !b.exploded && b.HasDetonator() {
			return true
		}
	}
	return false
}

// movePlayer moves a player up to speed*dt along d. The off-axis coordinate
// is pulled toward the tile centre so players slide around corners. A player
// stops at the centre of its tile when the next tile is solid or holds a bomb;
// a kicking shoe sets that bomb rolling instead.
func (m *GameMap) movePlayer(p *Player, d Direction, dt time.Duration, claims *mapset.Set[Position]) {
	p.dir = d
	dist := p.Speed() * dt.Seconds()
	start := p.pos
	tile := p.Tile()
	center := tile.Center()

	pos := p.pos
	if d.Horizontal() {
		pos.Y = approach(pos.Y, center.Y, dist)
	} else {
		pos.X = approach(pos.X, center.X, dist)
	}

	dx, dy := d.Vector()
	dirSign := float64(dx + dy)
	along := axisValue(pos, d)
	centerAlong := axisValue(center, d)
	target := along + dirSign*dist

	next := m.Wrap(tile.Add(d))
	if m.blocksPlayer(p, next, d) {
		limit := centerAlong
		if dirSign*(along-centerAlong) > 0 {
			limit = along
		}
		if dirSign*(target-limit) > 0 {
			target = limit
		}
	}
	pos = m.wrapPoint(setAxis(pos, d, target))

	newTile := pos.Tile()
	if newTile != tile {
		if claims.Has(newTile) {
			p.pos = start
			return
		}
		claims.Put(newTile)
	}

	p.pos = pos
	if p.state == StateStanding {
		p.setState(StateWalking)
		m.sound(SoundEvent{Kind: SoundWalk})
	}
	if newTile != tile {
		m.enterTile(p, newTile)
	}
}

// blocksPlayer reports whether the player may not enter pos while moving in
// direction d.
func (m *GameMap) blocksPlayer(p *Player, pos Position, d Direction) bool {
	t := m.TileAt(pos)
	if t == nil || t.IsSolid() {
		return true
	}
	b := m.bombAt(pos)
	if b == nil {
		return false
	}
	if p.CanKick() && b.Movement == BombStationary {
		m.kickBomb(b, d)
	}
	return true
}

// enterTile triggers the special object of a tile the player just entered.
func (m *GameMap) enterTile(p *Player, pos Position) {
	t := m.TileAt(pos)
	if t == nil || t.Kind != TileFloor {
		return
	}
	switch t.Special {
	case SpecialTeleportA, SpecialTeleportB:
		p.pos = t.Destination.Center()
		p.setState(StateTeleporting)
		m.sound(SoundEvent{Kind: SoundTeleport})
	case SpecialTrampoline:
		p.pos = pos.Center()
		p.landing = m.randomLanding(pos)
		p.setState(StateInAir)
		m.sound(SoundEvent{Kind: SoundTrampoline})
	case SpecialLava:
		m.killPlayer(p, nil, AnimationRip)
	}
}

// randomLanding picks a walkable tile without a bomb for a jumping player.
func (m *GameMap) randomLanding(from Position) Position {
	var candidates []Position
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			pos := Position{X: x, Y: y}
			if pos != from && m.TileIsWalkable(pos) && !m.TileHasBomb(pos) && m.tiles[y][x].Special == SpecialNone {
				candidates = append(candidates, pos)
			}
		}
	}
	if len(candidates) == 0 {
		return from
	}
	return candidates[m.rng.Intn(len(candidates))]
}

func approach(v, target, step float64) float64 {
	if math.Abs(target-v) <= step {
		return target
	}
	if v < target {
		return v + step
	}
	return v - step
}
