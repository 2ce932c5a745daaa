package game

import (
	"math"
	"time"
)

// BombMovement is how a bomb currently moves.
type BombMovement int

const (
	BombStationary BombMovement = iota
	BombRolling
	BombFlying
)

// FlightInfo describes a boxed or thrown bomb in the air.
type FlightInfo struct {
	DX, DY            int
	TotalDistance     int
	DistanceTravelled float64
}

// Bomb is a bomb lying on, rolling over or flying above the map.
type Bomb struct {
	ID            int
	Pos           Point
	Owner         *Player
	FlameLength   int
	Age           time.Duration
	ExplodesIn    time.Duration
	DetonatorTime time.Duration
	Movement      BombMovement
	RollDir       Direction
	Flight        FlightInfo
	HasSpring     bool

	exploded  bool
	triggered bool
}

// Tile is the tile the bomb lies on. For a flying bomb it is the landing tile.
func (b *Bomb) Tile() Position {
	return b.Pos.Tile()
}

// Exploded reports whether the bomb has already gone off.
func (b *Bomb) Exploded() bool {
	return b.exploded
}

// HasDetonator reports whether the bomb still waits for its owner's detonator.
func (b *Bomb) HasDetonator() bool {
	return b.DetonatorTime > 0 && b.Age < b.DetonatorTime && !b.triggered
}

// TimeUntilExplosion is the time left on the fuse, including the detonator
// window.
func (b *Bomb) TimeUntilExplosion() time.Duration {
	return b.ExplodesIn + b.DetonatorTime - b.Age
}

// ArcHeight is the height of a flying bomb above the ground, in tiles.
func (b *Bomb) ArcHeight() float64 {
	if b.Movement != BombFlying || b.Flight.TotalDistance == 0 {
		return 0
	}
	progress := b.Flight.DistanceTravelled / float64(b.Flight.TotalDistance)
	return math.Sin(progress*math.Pi) * float64(b.Flight.TotalDistance) / 2
}

// FlightPosition is where a flying bomb is drawn; for other bombs it is Pos.
func (b *Bomb) FlightPosition() Point {
	if b.Movement != BombFlying {
		return b.Pos
	}
	left := float64(b.Flight.TotalDistance) - b.Flight.DistanceTravelled
	return Point{
		X: b.Pos.X - float64(b.Flight.DX)*left,
		Y: b.Pos.Y - float64(b.Flight.DY)*left,
	}
}

// explodes marks the bomb exploded and returns the slot to its owner. It
// reports false if the bomb had already exploded.
func (b *Bomb) explodes() bool {
	if b.exploded {
		return false
	}
	b.exploded = true
	if b.Owner != nil {
		b.Owner.bombExploded()
	}
	return true
}

// newBomb creates a bomb for the player on the given tile using the
// player's current flame length, fuse and abilities.
func (m *GameMap) newBomb(p *Player, tile Position) *Bomb {
	m.nextBombID++
	b := &Bomb{
		ID:          m.nextBombID,
		Pos:         tile.Center(),
		Owner:       p,
		FlameLength: p.FlameLength(),
		ExplodesIn:  BombFuseTime,
		HasSpring:   p.BombsHaveSpring(),
	}
	if p.disease == DiseaseFastBomb {
		b.ExplodesIn = QuickFuseTime
	}
	if p.detonatorCharges > 0 {
		p.detonatorCharges--
		b.DetonatorTime = DetonatorExpiration
	}
	p.activeBombs++
	m.bombs = append(m.bombs, b)
	m.dangerValid = false
	return b
}

// layBomb lays a bomb on the player's tile if the player may.
func (m *GameMap) layBomb(p *Player) bool {
	if p.BombsLeft() <= 0 || p.disease == DiseaseNoBomb {
		return false
	}
	tile := p.Tile()
	t := m.TileAt(tile)
	if t == nil || t.IsSolid() || m.bombAt(tile) != nil {
		return false
	}
	m.newBomb(p, tile)
	m.sound(SoundEvent{Kind: SoundBombPut})
	return true
}

// layMultibomb lays the player's bombs in a line starting on its tile and
// continuing in its facing direction while the tiles allow it.
func (m *GameMap) layMultibomb(p *Player) bool {
	count := p.MultibombCount()
	if !m.layBomb(p) {
		return false
	}
	pos := p.Tile()
	for i := 1; i < count; i++ {
		pos = m.Wrap(pos.Add(p.dir))
		if !m.TileIsWalkable(pos) || m.bombAt(pos) != nil || p.BombsLeft() <= 0 {
			break
		}
		m.newBomb(p, pos)
	}
	return true
}

// bombAt returns a grounded, live bomb on the tile.
func (m *GameMap) bombAt(pos Position) *Bomb {
	for _, b := range m.bombs {
		if !b.exploded && b.Movement != BombFlying && b.Tile() == pos {
			return b
		}
	}
	return nil
}

// sendFlying launches a bomb toward dest, which may lie past the map edge;
// the landing tile wraps.
func (m *GameMap) sendFlying(b *Bomb, dest Position) {
	from := b.Tile()
	dx, dy := sign(dest.X-from.X), sign(dest.Y-from.Y)
	dist := abs(dest.X-from.X) + abs(dest.Y-from.Y)
	b.Movement = BombFlying
	b.Flight = FlightInfo{DX: dx, DY: dy, TotalDistance: dist}
	b.Pos = m.Wrap(dest).Center()
	m.dangerValid = false
}

// kickBomb starts a grounded bomb rolling.
func (m *GameMap) kickBomb(b *Bomb, d Direction) {
	b.Movement = BombRolling
	b.RollDir = d
	m.sound(SoundEvent{Kind: SoundKick})
	m.dangerValid = false
}

// updateBombs advances fuses and movement and explodes every bomb that is
// due, chaining into other bombs.
func (m *GameMap) updateBombs(dt time.Duration) {
	bombs := append([]*Bomb(nil), m.bombs...)
	for _, b := range bombs {
		if b.exploded {
			continue
		}
		b.Age += dt

		switch b.Movement {
		case BombRolling:
			m.rollBomb(b, dt)
		case BombFlying:
			m.flyBomb(b, dt)
		default:
			if t := m.TileAt(b.Tile()); t != nil {
				if d, ok := t.Special.ArrowDirection(); ok && t.Kind == TileFloor {
					b.Movement = BombRolling
					b.RollDir = d
				}
			}
		}

		if b.Movement == BombFlying {
			continue
		}
		if b.triggered || b.TimeUntilExplosion() <= 0 || m.TileHasFlame(b.Tile()) {
			m.ExplodeBomb(b)
		}
	}
	m.removeExplodedBombs()
}

func (m *GameMap) removeExplodedBombs() {
	live := m.bombs[:0]
	for _, b := range m.bombs {
		if !b.exploded {
			live = append(live, b)
		}
	}
	for i := len(live); i < len(m.bombs); i++ {
		m.bombs[i] = nil
	}
	m.bombs = live
}

func (m *GameMap) flyBomb(b *Bomb, dt time.Duration) {
	b.Flight.DistanceTravelled += FlyingSpeed * dt.Seconds()
	if b.Flight.DistanceTravelled < float64(b.Flight.TotalDistance) {
		return
	}
	tile := b.Tile()
	if t := m.TileAt(tile); t.IsSolid() || t.Special == SpecialLava || m.bombAt(tile) != nil {
		// Bounce one more tile in the same direction.
		m.sendFlying(b, Position{X: tile.X + b.Flight.DX, Y: tile.Y + b.Flight.DY})
		return
	}
	b.Movement = BombStationary
	b.Flight = FlightInfo{}
	m.dangerValid = false
}

// rollObstructed reports whether a rolling bomb cannot enter pos.
func (m *GameMap) rollObstructed(b *Bomb, pos Position) bool {
	if !m.TileIsWalkable(pos) {
		return true
	}
	if o := m.bombAt(pos); o != nil && o != b {
		return true
	}
	for _, p := range m.players {
		if !p.IsDead() && !p.IsInAir() && p.Tile() == pos {
			return true
		}
	}
	return false
}

func (m *GameMap) rollBomb(b *Bomb, dt time.Duration) {
	step := RollingSpeed * dt.Seconds()
	tile := b.Tile()
	center := tile.Center()
	dx, dy := b.RollDir.Vector()

	along := axisValue(b.Pos, b.RollDir)
	centerAlong := axisValue(center, b.RollDir)
	dirSign := float64(dx + dy)
	next := m.Wrap(tile.Add(b.RollDir))

	if m.rollObstructed(b, next) {
		target := along + dirSign*step
		if dirSign*(target-centerAlong) >= 0 {
			b.Pos = center
			if b.HasSpring {
				b.RollDir = b.RollDir.Opposite()
				m.sound(SoundEvent{Kind: SoundSpring})
			} else {
				b.Movement = BombStationary
			}
		} else {
			b.Pos = setAxis(b.Pos, b.RollDir, target)
		}
		m.dangerValid = false
		return
	}

	before := dirSign * (along - centerAlong)
	b.Pos = m.wrapPoint(setAxis(b.Pos, b.RollDir, along+dirSign*step))
	if b.Tile() == tile && before < 0 && dirSign*(axisValue(b.Pos, b.RollDir)-centerAlong) >= 0 {
		// Crossed the centre of the current tile: arrows take over here.
		if t := m.TileAt(tile); t != nil && t.Kind == TileFloor {
			if d, ok := t.Special.ArrowDirection(); ok && d != b.RollDir {
				b.Pos = center
				b.RollDir = d
			}
		}
	}
	m.dangerValid = false
}

func axisValue(p Point, d Direction) float64 {
	if d.Horizontal() {
		return p.X
	}
	return p.Y
}

func setAxis(p Point, d Direction, v float64) Point {
	if d.Horizontal() {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
