package game

import (
	"fmt"
	"strings"
)

// TileDef is a tile as read from a map definition.
type TileDef struct {
	Kind    TileKind
	Special SpecialObject
	// Start is the player number starting on this tile, or -1.
	Start int
}

// MapDef is a parsed map in the text format
// "<environment>;<player items>;<map items>;<tiles>".
type MapDef struct {
	Name        string
	Environment string
	// PlayerItems are given to every player at the start of a round.
	PlayerItems []ItemKind
	// MapItems are hidden under randomly chosen blocks.
	MapItems []ItemKind
	Width    int
	Height   int
	Tiles    []TileDef
}

// ParseMap parses and validates a map of the given size. Whitespace inside the
// tile field is ignored so maps may be stored one row per line.
func ParseMap(text string, width, height int) (*MapDef, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrMapFormat, width, height)
	}
	fields := strings.SplitN(strings.TrimSpace(text), ";", 4)
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: expected 4 fields, got %d", ErrMapFormat, len(fields))
	}

	def := &MapDef{
		Environment: strings.TrimSpace(fields[0]),
		Width:       width,
		Height:      height,
	}

	var err error
	if def.PlayerItems, err = ParseItems(strings.TrimSpace(fields[1])); err != nil {
		return nil, fmt.Errorf("player items: %w", err)
	}
	if def.MapItems, err = ParseItems(strings.TrimSpace(fields[2])); err != nil {
		return nil, fmt.Errorf("map items: %w", err)
	}

	codes := strings.Join(strings.Fields(fields[3]), "")
	if len(codes) != width*height {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrTileCount, len(codes), width*height)
	}

	def.Tiles = make([]TileDef, len(codes))
	teleportsA, teleportsB := 0, 0
	for i := 0; i < len(codes); i++ {
		td, err := parseTileCode(codes[i])
		if err != nil {
			return nil, fmt.Errorf("tile %d,%d: %w", i%width, i/width, err)
		}
		switch td.Special {
		case SpecialTeleportA:
			teleportsA++
		case SpecialTeleportB:
			teleportsB++
		}
		def.Tiles[i] = td
	}
	if teleportsA != teleportsB {
		return nil, fmt.Errorf("%w: %d A, %d B", ErrTeleportPair, teleportsA, teleportsB)
	}
	return def, nil
}

func parseTileCode(c byte) (TileDef, error) {
	td := TileDef{Kind: TileFloor, Start: -1}
	switch {
	case c == '.':
	case c == 'x':
		td.Kind = TileBlock
	case c == '#':
		td.Kind = TileWall
	case c == 'A':
		td.Special = SpecialTeleportA
	case c == 'B':
		td.Special = SpecialTeleportB
	case c == 'T':
		td.Special = SpecialTrampoline
	case c == 'V':
		td.Special = SpecialLava
	case c >= '0' && c <= '9':
		td.Start = int(c - '0')
	default:
		if d, ok := arrowCodes[c]; ok {
			td.Special = arrowObject(d)
		} else if d, ok := arrowCodes[c+'a'-'A']; ok {
			td.Kind = TileBlock
			td.Special = arrowObject(d)
		} else {
			return td, fmt.Errorf("%w: %q", ErrUnknownTile, c)
		}
	}
	return td, nil
}

var arrowCodes = map[byte]Direction{
	'u': DirUp,
	'r': DirRight,
	'd': DirDown,
	'l': DirLeft,
}

// Code returns the map text code of a tile definition.
func (td TileDef) Code() byte {
	if td.Start >= 0 {
		return byte('0' + td.Start)
	}
	if d, ok := td.Special.ArrowDirection(); ok {
		c := "urdl"[d]
		if td.Kind == TileBlock {
			c -= 'a' - 'A'
		}
		return c
	}
	switch td.Special {
	case SpecialTeleportA:
		return 'A'
	case SpecialTeleportB:
		return 'B'
	case SpecialTrampoline:
		return 'T'
	case SpecialLava:
		return 'V'
	}
	switch td.Kind {
	case TileBlock:
		return 'x'
	case TileWall:
		return '#'
	}
	return '.'
}

// String encodes the map back to its text format, one row per line.
func (def *MapDef) String() string {
	var b strings.Builder
	b.WriteString(def.Environment)
	b.WriteByte(';')
	writeItems(&b, def.PlayerItems)
	b.WriteByte(';')
	writeItems(&b, def.MapItems)
	b.WriteByte(';')
	for i, td := range def.Tiles {
		if i > 0 && i%def.Width == 0 {
			b.WriteByte('\n')
		}
		b.WriteByte(td.Code())
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []ItemKind) {
	for _, k := range items {
		b.WriteByte(k.Code())
	}
}

// StartPositions maps player numbers to their start tiles.
func (def *MapDef) StartPositions() map[int]Position {
	starts := make(map[int]Position)
	for i, td := range def.Tiles {
		if td.Start >= 0 {
			starts[td.Start] = Position{X: i % def.Width, Y: i / def.Width}
		}
	}
	return starts
}
