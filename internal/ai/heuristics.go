package ai

import (
	"time"

	"github.com/amalg/go-bombman/internal/game"
)

// tileIsEscapable is true for walkable tiles without flame or lava.
func (s situation) tileIsEscapable(pos game.Position) bool {
	return s.v.TileIsWalkable(pos) && !s.v.TileHasFlame(pos) && !s.v.TileHasLava(pos)
}

func (s situation) safe(pos game.Position) bool {
	return s.v.DangerValue(pos) >= game.SafeDangerValue
}

// isTrapped reports whether none of the four neighbours is walkable.
func (s situation) isTrapped() bool {
	for _, pos := range s.p.NeighbourTiles() {
		if s.v.TileIsWalkable(s.v.Wrap(pos)) {
			return false
		}
	}
	return true
}

// generalDirection returns the rough direction toward the nearest living
// enemy by tile distance, each component in -1..1. Equally near enemies are
// taken in player order. Without enemies it is 0,0.
func (s situation) generalDirection() (dx, dy int) {
	me := s.p.Tile()
	target, best := me, -1
	for _, o := range s.v.Players() {
		if !o.IsEnemy(s.p) || o.IsDead() {
			continue
		}
		it := o.Tile()
		if d := abs(it.X-me.X) + abs(it.Y-me.Y); best < 0 || d < best {
			target, best = it, d
		}
	}
	return clamp(target.X - me.X), clamp(target.Y - me.Y)
}

func clamp(v int) int {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// perpendicular offsets checked beside each escape axis, in up, right, down,
// left order.
var perpendicular = [4]game.Position{{X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}}

// rateBombEscapeDirections counts, per direction, the safe tiles a player
// could reach by running that way from a bomb on tile. Each step along the
// axis past the flame length counts if safe, and so do the two tiles beside
// each step. The walk ends at the first tile that cannot be escaped to.
func (s situation) rateBombEscapeDirections(tile game.Position) [4]int {
	var result [4]int
	flame := s.p.FlameLength()

	for _, d := range game.Directions {
		side := perpendicular[d]
		for i := 1; i <= flame+1; i++ {
			axis := tile.Step(d, i)
			if !s.tileIsEscapable(axis) {
				break
			}
			if i > flame && s.safe(axis) {
				result[d]++
			}
			for _, pos := range []game.Position{
				{X: axis.X + side.X, Y: axis.Y + side.Y},
				{X: axis.X - side.X, Y: axis.Y - side.Y},
			} {
				if s.tileIsEscapable(pos) && s.safe(pos) {
					result[d]++
				}
			}
		}
	}
	return result
}

// rateTile scores a tile between 0 (deadly or blocked) and 80.
func (s situation) rateTile(pos game.Position) int {
	danger := s.v.DangerValue(pos)
	if danger == 0 || !s.v.TileIsWalkable(pos) {
		return 0
	}

	var score int
	switch {
	case danger < 1000*time.Millisecond:
		score = 20
	case danger < 2500*time.Millisecond:
		score = 40
	default:
		score = 60
	}

	if t, ok := s.v.TileInfo(pos); ok && t.Item != game.ItemNone {
		if t.Item == game.ItemDisease {
			score -= 10
		} else {
			score += 20
		}
	}

	for _, d := range game.Directions {
		if s.v.TileHasLava(pos.Add(d)) {
			score -= 5
			break
		}
	}

	if s.v.TileHasBomb(pos) && !s.p.CanBox() {
		score -= 5
	}
	return score
}

// blocksNextTo counts the destructible blocks around a tile.
func (s situation) blocksNextTo(pos game.Position) int {
	n := 0
	for _, d := range game.Directions {
		if t, ok := s.v.TileInfo(pos.Add(d)); ok && t.Kind == game.TileBlock {
			n++
		}
	}
	return n
}

// playersNearby counts living enemies and allies within one tile.
func (s situation) playersNearby() (enemies, allies int) {
	me := s.p.Tile()
	for _, o := range s.v.Players() {
		if o == s.p || o.IsDead() {
			continue
		}
		pos := o.Tile()
		if abs(pos.X-me.X) <= 1 && abs(pos.Y-me.Y) <= 1 {
			if o.IsEnemy(s.p) {
				enemies++
			} else {
				allies++
			}
		}
	}
	return enemies, allies
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// bombChance returns N where a bomb is laid with probability 1/(N+1).
// Lone enemies nearby make the AI aggressive and fewer blocks left make it
// lay bombs more often; standing next to blocks overrides both.
func (s situation) bombChance() int {
	chance := 100

	enemies, allies := s.playersNearby()
	if enemies > 0 && allies == 0 {
		chance = 5
	} else {
		ratio := float64(s.v.BlockCount()) / float64(s.v.Width()*s.v.Height())
		switch {
		case ratio < 0.2:
			chance = 20
		case ratio < 0.4:
			chance = 80
		}
	}

	switch s.blocksNextTo(s.p.Tile()) {
	case 1:
		chance = 3
	case 2, 3:
		chance = 6
	}
	return chance
}

// shouldLayMultibomb reports whether a line of bombs laid in direction dir
// leaves the player another escape route and every tile of the line, which
// wraps around the map edges, is safe for long enough.
func (s situation) shouldLayMultibomb(dir game.Direction) bool {
	if s.p.CanThrow() {
		return false
	}
	count := s.p.MultibombCount()
	if count <= 1 {
		return false
	}

	current := s.p.Tile()
	ratings := s.rateBombEscapeDirections(current)
	ratings[dir] = 0
	if maxRating(ratings) == 0 {
		return false
	}

	pos := current
	for i := 0; i < count; i++ {
		if s.v.TileHasLava(pos) || s.v.DangerValue(pos) < 3000*time.Millisecond {
			return false
		}
		if !s.v.TileIsWalkable(pos) {
			break
		}
		pos = s.v.Wrap(pos.Add(dir))
	}
	return true
}
