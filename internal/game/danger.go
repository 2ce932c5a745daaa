package game

import "time"

// DangerValue estimates how long until the tile is harmed by fire. Burning
// and lava tiles are 0; tiles outside the map are 0 as well. Tiles no armed
// bomb can reach report SafeDangerValue.
func (m *GameMap) DangerValue(pos Position) time.Duration {
	if !m.TileIsWithinMap(pos) {
		return 0
	}
	if !m.dangerValid {
		m.updateDangerMap()
	}
	return m.danger[pos.Y][pos.X]
}

// bombDangerTime is when a bomb is expected to go off, ignoring chains.
func bombDangerTime(b *Bomb) time.Duration {
	if b.triggered {
		return 0
	}
	if b.HasDetonator() {
		return DetonatorDanger
	}
	t := b.TimeUntilExplosion()
	if t < 0 {
		return 0
	}
	return t
}

func (m *GameMap) updateDangerMap() {
	stop := m.tracer.Measure("sim.danger")
	defer stop()

	if m.danger == nil {
		m.danger = make([][]time.Duration, m.height)
		for y := range m.danger {
			m.danger[y] = make([]time.Duration, m.width)
		}
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.tiles[y][x]
			if t.HasFlame() || t.Special == SpecialLava {
				m.danger[y][x] = 0
			} else {
				m.danger[y][x] = SafeDangerValue
			}
		}
	}

	var bombs []*Bomb
	for _, b := range m.bombs {
		if !b.exploded {
			bombs = append(bombs, b)
		}
	}
	if len(bombs) == 0 {
		m.dangerValid = true
		return
	}

	times := make([]time.Duration, len(bombs))
	reach := make([][]Position, len(bombs))
	for i, b := range bombs {
		times[i] = bombDangerTime(b)
		origin := b.Tile()
		reach[i] = append(reach[i], origin)
		for _, d := range Directions {
			m.flameReach(origin, d, b.FlameLength, func(t *Tile, _ bool) {
				reach[i] = append(reach[i], t.Pos)
			})
		}
	}

	// A bomb inside another bomb's reach goes off no later than that bomb.
	for changed := true; changed; {
		changed = false
		for i := range bombs {
			for _, pos := range reach[i] {
				for j, o := range bombs {
					if j != i && o.Movement != BombFlying && o.Tile() == pos && times[j] > times[i] {
						times[j] = times[i]
						changed = true
					}
				}
			}
		}
	}

	for i := range bombs {
		for _, pos := range reach[i] {
			if times[i] < m.danger[pos.Y][pos.X] {
				m.danger[pos.Y][pos.X] = times[i]
			}
		}
	}
	m.dangerValid = true
}
