package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMap(t *testing.T) {
	def, err := ParseMap("snow;bf;kkx;#x.\nA0B\nuRV", 3, 3)
	require.NoError(t, err)

	assert.Equal(t, "snow", def.Environment)
	assert.Equal(t, []ItemKind{ItemBomb, ItemFlame}, def.PlayerItems)
	assert.Equal(t, []ItemKind{ItemShoe, ItemShoe, ItemBoxingGlove}, def.MapItems)

	assert.Equal(t, TileWall, def.Tiles[0].Kind)
	assert.Equal(t, TileBlock, def.Tiles[1].Kind)
	assert.Equal(t, SpecialTeleportA, def.Tiles[3].Special)
	assert.Equal(t, 0, def.Tiles[4].Start)
	assert.Equal(t, SpecialTeleportB, def.Tiles[5].Special)

	assert.Equal(t, TileFloor, def.Tiles[6].Kind)
	assert.Equal(t, SpecialArrowUp, def.Tiles[6].Special)
	assert.Equal(t, TileBlock, def.Tiles[7].Kind, "upper-case arrow lies under a block")
	assert.Equal(t, SpecialArrowRight, def.Tiles[7].Special)
	assert.Equal(t, SpecialLava, def.Tiles[8].Special)

	assert.Equal(t, map[int]Position{0: {X: 1, Y: 1}}, def.StartPositions())
}

func TestParseMapErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want error
	}{
		{"missing fields", "env;;....", ErrMapFormat},
		{"tile count", "env;;;...", ErrTileCount},
		{"teleport pair", "env;;;A...", ErrTeleportPair},
		{"unknown tile", "env;;;..?.", ErrUnknownTile},
		{"unknown item", "env;z;;....", ErrUnknownItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseMap(tc.text, 2, 2)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestMapStringRoundTrip(t *testing.T) {
	text := "desert;fb;ee;#x.A\n0uDB\nT.V1"
	def, err := ParseMap(text, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, text, def.String())

	again, err := ParseMap(def.String(), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}

func TestNewGameMapMissingStart(t *testing.T) {
	def, err := ParseMap(";;;0...", 2, 2)
	require.NoError(t, err)

	_, err = NewGameMap(def, slots(2), DefaultOptions())
	assert.ErrorIs(t, err, ErrMissingStart)
}

func TestTeleportPairing(t *testing.T) {
	m := newTestMap(t, "", []string{
		"A.B0",
		"B..A",
	}, slots(1)...)

	assert.Equal(t, Position{X: 2, Y: 0}, m.TileAt(Position{X: 0, Y: 0}).Destination)
	assert.Equal(t, Position{X: 0, Y: 0}, m.TileAt(Position{X: 2, Y: 0}).Destination)
	assert.Equal(t, Position{X: 0, Y: 1}, m.TileAt(Position{X: 3, Y: 1}).Destination)
}

func TestMapItemsHiddenUnderBlocks(t *testing.T) {
	def, err := ParseMap(";;ffff;0xx.", 4, 1)
	require.NoError(t, err)
	m, err := NewGameMap(def, slots(1), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, ItemFlame, m.TileAt(Position{X: 1, Y: 0}).Item)
	assert.Equal(t, ItemFlame, m.TileAt(Position{X: 2, Y: 0}).Item)
	assert.Equal(t, ItemNone, m.TileAt(Position{X: 3, Y: 0}).Item, "extra items are dropped")
}

func TestTileAtAndWrap(t *testing.T) {
	m := newTestMap(t, "", []string{"0..", "..."}, slots(1)...)

	assert.Nil(t, m.TileAt(Position{X: -1, Y: 0}))
	assert.Nil(t, m.TileAt(Position{X: 3, Y: 0}))
	assert.NotNil(t, m.TileAt(Position{X: 2, Y: 1}))

	assert.Equal(t, Position{X: 2, Y: 1}, m.Wrap(Position{X: -1, Y: -1}))
	assert.Equal(t, Position{X: 0, Y: 0}, m.Wrap(Position{X: 3, Y: 2}))
	assert.False(t, m.TileIsWalkable(Position{X: 5, Y: 0}))
}
