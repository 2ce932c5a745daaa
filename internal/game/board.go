package game

import (
	"math/rand"
)

// LayoutConfig controls the classic layout generator.
type LayoutConfig struct {
	Width          int
	Height         int
	Environment    string
	BlockDensity   float64
	PlayerItems    []ItemKind
	MapItems       []ItemKind
	StartPositions int
}

// DefaultLayoutConfig returns the classic 15x11 arena with ten start slots.
func DefaultLayoutConfig() LayoutConfig {
	items, _ := ParseItems("ffffffbbbbbbkkksssppmmxxeettrrdd")
	return LayoutConfig{
		Width:          DefaultMapWidth,
		Height:         DefaultMapHeight,
		Environment:    "classic",
		BlockDensity:   0.6,
		MapItems:       items,
		StartPositions: MaxPlayers,
	}
}

// ClassicLayout generates a classic arena.
//
// Layout rules:
//   - Border is all Wall
//   - Wall at every position where both X and Y are even
//   - Random Block fill at the given density
//   - Start tiles (and their neighbours) are kept clear
func ClassicLayout(config LayoutConfig, rng *rand.Rand) *MapDef {
	def := &MapDef{
		Name:        "classic",
		Environment: config.Environment,
		PlayerItems: config.PlayerItems,
		MapItems:    config.MapItems,
		Width:       config.Width,
		Height:      config.Height,
		Tiles:       make([]TileDef, config.Width*config.Height),
	}

	for y := 0; y < config.Height; y++ {
		for x := 0; x < config.Width; x++ {
			td := TileDef{Kind: TileFloor, Start: -1}
			switch {
			case x == 0 || y == 0 || x == config.Width-1 || y == config.Height-1:
				td.Kind = TileWall
			case x%2 == 0 && y%2 == 0:
				td.Kind = TileWall
			}
			def.Tiles[y*config.Width+x] = td
		}
	}

	spawns := SpawnPositions(config.Width, config.Height)
	if config.StartPositions < len(spawns) {
		spawns = spawns[:config.StartPositions]
	}
	for i, sp := range spawns {
		def.Tiles[sp.Y*config.Width+sp.X].Start = i
	}
	safeSet := makeSafeSet(spawns)

	for y := 1; y < config.Height-1; y++ {
		for x := 1; x < config.Width-1; x++ {
			td := &def.Tiles[y*config.Width+x]
			if td.Kind != TileFloor || safeSet[Position{X: x, Y: y}] {
				continue
			}
			if rng.Float64() < config.BlockDensity {
				td.Kind = TileBlock
			}
		}
	}
	return def
}

// SpawnPositions returns the start tiles of the classic layout in player
// number order: the four corners, the middle of each border, then two
// tiles near the centre.
func SpawnPositions(width, height int) []Position {
	midX, midY := odd(width/2), odd(height/2)
	spawns := []Position{
		{X: 1, Y: 1},
		{X: width - 2, Y: height - 2},
		{X: width - 2, Y: 1},
		{X: 1, Y: height - 2},
		{X: midX, Y: 1},
		{X: midX, Y: height - 2},
		{X: 1, Y: midY},
		{X: width - 2, Y: midY},
		{X: odd(midX - 2), Y: midY},
		{X: odd(midX + 2), Y: midY},
	}
	seen := make(map[Position]bool)
	out := spawns[:0]
	for _, sp := range spawns {
		if sp.X < 1 || sp.Y < 1 || sp.X > width-2 || sp.Y > height-2 || seen[sp] {
			continue
		}
		seen[sp] = true
		out = append(out, sp)
	}
	return out
}

func odd(v int) int {
	if v%2 == 0 {
		return v - 1
	}
	return v
}

// makeSafeSet returns the positions that must remain clear around start tiles.
func makeSafeSet(spawns []Position) map[Position]bool {
	safe := make(map[Position]bool)
	for _, sp := range spawns {
		safe[sp] = true
		for _, d := range Directions {
			safe[sp.Add(d)] = true
		}
	}
	return safe
}
