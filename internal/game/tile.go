package game

// TileKind is the structural kind of a tile.
type TileKind int

const (
	TileFloor TileKind = iota
	TileBlock
	TileWall
)

func (k TileKind) String() string {
	switch k {
	case TileFloor:
		return "floor"
	case TileBlock:
		return "block"
	case TileWall:
		return "wall"
	default:
		return "unknown"
	}
}

// SpecialObject is an optional object attached to a tile.
type SpecialObject int

const (
	SpecialNone SpecialObject = iota
	SpecialTrampoline
	SpecialTeleportA
	SpecialTeleportB
	SpecialArrowUp
	SpecialArrowRight
	SpecialArrowDown
	SpecialArrowLeft
	SpecialLava
)

// ArrowDirection returns the forced direction of an arrow object.
func (s SpecialObject) ArrowDirection() (Direction, bool) {
	switch s {
	case SpecialArrowUp:
		return DirUp, true
	case SpecialArrowRight:
		return DirRight, true
	case SpecialArrowDown:
		return DirDown, true
	case SpecialArrowLeft:
		return DirLeft, true
	}
	return 0, false
}

// IsTeleport reports whether the object is either end of a teleport pair.
func (s SpecialObject) IsTeleport() bool {
	return s == SpecialTeleportA || s == SpecialTeleportB
}

func arrowObject(d Direction) SpecialObject {
	return SpecialArrowUp + SpecialObject(d)
}

// Tile is one cell of the map grid.
type Tile struct {
	Pos     Position
	Kind    TileKind
	Special SpecialObject
	// Destination is the paired tile of a teleport.
	Destination Position
	Item        ItemKind
	Flames      []*Flame
	// PendingDestruction is set on a block hit by flame. The block keeps its
	// kind until its flames burn out.
	PendingDestruction bool
}

// IsSolid reports whether the tile stops players and bombs.
func (t *Tile) IsSolid() bool {
	return t.Kind == TileWall || t.Kind == TileBlock
}

// HasFlame reports whether any flame burns on the tile.
func (t *Tile) HasFlame() bool {
	return len(t.Flames) > 0
}

// ShouldntWalk is true for tiles that are solid, burning or lava.
func (t *Tile) ShouldntWalk() bool {
	return t.IsSolid() || t.HasFlame() || t.Special == SpecialLava
}

// StopsFlame reports whether a flame travelling along an axis ends before
// this tile without occupying it.
func (t *Tile) StopsFlame() bool {
	return t.Kind == TileWall || t.Special == SpecialLava
}

// placeFlame adds a flame created on the given tick, merging it with a flame
// already placed on this tile during the same tick.
func (t *Tile) placeFlame(owner *Player, dir FlameDirection, tick uint64) (*Flame, bool) {
	for _, f := range t.Flames {
		if f.tick == tick {
			f.Direction = mergeFlameDirections(f.Direction, dir)
			f.TimeToBurnout = FlameBurnoutTime
			return f, false
		}
	}
	f := &Flame{
		Owner:         owner,
		TimeToBurnout: FlameBurnoutTime,
		Direction:     dir,
		tick:          tick,
	}
	t.Flames = append(t.Flames, f)
	return f, true
}
