package game

import (
	"time"

	"github.com/zyedidia/generic/mapset"
)

// flameReach calls visit for every tile a flame of the given length leaving
// origin in direction d would occupy, nearest first. The walk stops at the
// map edge and before walls and lava. A block is visited and then ends the
// walk. The danger map uses the same rule as real explosions.
func (m *GameMap) flameReach(origin Position, d Direction, length int, visit func(t *Tile, last bool)) {
	for i := 1; i <= length; i++ {
		t := m.TileAt(origin.Step(d, i))
		if t == nil || t.StopsFlame() {
			return
		}
		end := i == length || t.Kind == TileBlock
		if !end {
			if n := m.TileAt(origin.Step(d, i+1)); n == nil || n.StopsFlame() {
				end = true
			}
		}
		visit(t, end)
		if t.Kind == TileBlock {
			return
		}
	}
}

// ExplodeBomb explodes a bomb now. Exploding a bomb twice is a no-op.
func (m *GameMap) ExplodeBomb(b *Bomb) {
	chain := mapset.New[int]()
	m.explode(b, &chain)
}

func (m *GameMap) explode(b *Bomb, chain *mapset.Set[int]) {
	if chain.Has(b.ID) || !b.explodes() {
		return
	}
	chain.Put(b.ID)
	b.Movement = BombStationary
	m.dangerValid = false

	origin := b.Tile()
	m.sound(SoundEvent{Kind: SoundExplosion})
	m.animate(AnimationExplosion, origin.Center())

	reached := mapset.New[Position]()
	if t := m.TileAt(origin); t != nil {
		m.burnTile(t, b.Owner, FlameAll)
		reached.Put(origin)
	}
	for _, d := range Directions {
		m.flameReach(origin, d, b.FlameLength, func(t *Tile, last bool) {
			dir := flameBody(d)
			if last {
				dir = flameEnd(d)
			}
			m.burnTile(t, b.Owner, dir)
			reached.Put(t.Pos)
		})
	}

	m.burnPlayers(&reached)

	for _, other := range m.bombs {
		if other.exploded || other.Movement == BombFlying {
			continue
		}
		if reached.Has(other.Tile()) {
			m.explode(other, chain)
		}
	}
}

// burnTile places a flame on a tile. A block is marked for destruction and a
// floor item lying in the open burns.
func (m *GameMap) burnTile(t *Tile, owner *Player, dir FlameDirection) {
	t.placeFlame(owner, dir, m.tick)
	switch t.Kind {
	case TileBlock:
		t.PendingDestruction = true
	case TileFloor:
		t.Item = ItemNone
	}
}

// burnPlayers kills every grounded player standing on one of the tiles.
func (m *GameMap) burnPlayers(tiles *mapset.Set[Position]) {
	for _, p := range m.players {
		if p.IsDead() || p.IsInAir() || !tiles.Has(p.Tile()) {
			continue
		}
		t := m.TileAt(p.Tile())
		m.killPlayer(p, t.Flames[0].Owner, AnimationSkeleton)
	}
}

// updateFlames burns flames down. A block whose flames are all gone becomes
// floor, revealing any item hidden under it.
func (m *GameMap) updateFlames(dt time.Duration) {
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.tiles[y][x]
			if !t.HasFlame() {
				continue
			}
			live := t.Flames[:0]
			for _, f := range t.Flames {
				f.TimeToBurnout -= dt
				if f.TimeToBurnout > 0 {
					live = append(live, f)
				}
			}
			t.Flames = live
			if len(t.Flames) == 0 {
				t.Flames = nil
				if t.PendingDestruction {
					t.Kind = TileFloor
					t.PendingDestruction = false
				}
				m.dangerValid = false
			}
		}
	}
}

// killFlamedPlayers kills grounded players who walked or landed into flames.
func (m *GameMap) killFlamedPlayers() {
	for _, p := range m.players {
		if p.IsDead() || p.IsInAir() {
			continue
		}
		t := m.TileAt(p.Tile())
		if t == nil {
			continue
		}
		switch {
		case t.HasFlame():
			m.killPlayer(p, t.Flames[0].Owner, AnimationSkeleton)
		case t.Special == SpecialLava:
			m.killPlayer(p, nil, AnimationRip)
		}
	}
}

// killPlayer kills a player. A kill is credited to an enemy owner; killing
// yourself costs a kill and killing a teammate earns nothing. Killing a dead
// or immortal player is a no-op.
func (m *GameMap) killPlayer(p, by *Player, anim AnimationKind) {
	if p.IsDead() || p.immortal {
		return
	}
	p.setState(StateDead)
	m.sound(SoundEvent{Kind: SoundDeath})
	m.animate(AnimationDie, p.pos)
	m.animate(anim, p.pos)

	switch {
	case by == nil:
	case by == p:
		p.kills--
	case by.IsEnemy(p):
		by.kills++
	}

	m.scheduleGiveAway(p.takeItems())
	m.log.WithField("player", p.number).Debug("player died")
}
