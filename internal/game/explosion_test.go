package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplosionPattern(t *testing.T) {
	m := newTestMap(t, "f", []string{
		"2........",
		".........",
		"....1....",
		".........",
		"....0....",
		".........",
		".........",
		".........",
		".........",
	}, slots(3)...)

	owner := m.PlayerByNumber(0)
	victim := m.PlayerByNumber(1)
	bystander := m.PlayerByNumber(2)
	require.Equal(t, 2, owner.FlameLength())

	m.newBomb(owner, Position{X: 4, Y: 4})
	owner.pos = Position{X: 8, Y: 8}.Center()

	m.Update(BombFuseTime-tick, nil)
	assert.False(t, flameAt(m, 4, 4), "fuse has not run out yet")
	assert.False(t, victim.IsDead())

	m.Update(tick, nil)

	burning := []Position{
		{X: 4, Y: 4},
		{X: 4, Y: 3}, {X: 4, Y: 2},
		{X: 5, Y: 4}, {X: 6, Y: 4},
		{X: 4, Y: 5}, {X: 4, Y: 6},
		{X: 3, Y: 4}, {X: 2, Y: 4},
	}
	count := 0
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if flameAt(m, x, y) {
				count++
			}
		}
	}
	assert.Equal(t, len(burning), count)
	for _, pos := range burning {
		assert.True(t, m.TileHasFlame(pos), "expected flame at %v", pos)
	}
	assert.Equal(t, FlameAll, m.TileAt(Position{X: 4, Y: 4}).Flames[0].Direction)
	assert.Equal(t, FlameVertical, m.TileAt(Position{X: 4, Y: 3}).Flames[0].Direction)
	assert.Equal(t, FlameUp, m.TileAt(Position{X: 4, Y: 2}).Flames[0].Direction)

	assert.True(t, victim.IsDead(), "player in the flame dies on the same tick")
	assert.False(t, bystander.IsDead())
	assert.False(t, owner.IsDead())
	assert.Equal(t, 1, owner.Kills())
	assert.Empty(t, m.Bombs())
	assert.Equal(t, 1, owner.BombsLeft())
	assert.NoError(t, m.CheckInvariants())
}

func TestExplodeTwiceIsNoop(t *testing.T) {
	m := newTestMap(t, "b", []string{"0...."}, slots(1)...)
	p := m.PlayerByNumber(0)

	b := m.newBomb(p, Position{X: 2, Y: 0})
	m.newBomb(p, Position{X: 4, Y: 0})
	require.Equal(t, 0, p.BombsLeft())

	m.ExplodeBomb(b)
	m.ExplodeBomb(b)
	assert.True(t, b.Exploded())
	assert.Equal(t, 1, p.ActiveBombs())
	assert.Equal(t, 1, p.BombsLeft())
}

func TestFlameStopsAtWallLavaAndBlock(t *testing.T) {
	m := newTestMap(t, "", []string{
		"0..........",
		"..V..x..#..",
		"...........",
	}, slots(1)...)
	p := m.PlayerByNumber(0)
	p.items[ItemFlame] = 5

	b := m.newBomb(p, Position{X: 4, Y: 1})
	m.ExplodeBomb(b)

	assert.True(t, flameAt(m, 3, 1))
	assert.False(t, flameAt(m, 2, 1), "lava takes no flame")
	assert.False(t, flameAt(m, 1, 1), "lava stops the axis")

	block := m.TileAt(Position{X: 5, Y: 1})
	assert.True(t, block.HasFlame(), "a block absorbs one flame")
	assert.True(t, block.PendingDestruction)
	assert.Equal(t, TileBlock, block.Kind)
	assert.False(t, flameAt(m, 6, 1), "flame does not continue past a block")

	assert.True(t, flameAt(m, 4, 0))
	assert.True(t, flameAt(m, 4, 2))
	assert.Equal(t, FlameUp, m.TileAt(Position{X: 4, Y: 0}).Flames[0].Direction)
}

func TestFlameStopsAtWall(t *testing.T) {
	m := newTestMap(t, "", []string{"0.....#.."}, slots(1)...)
	p := m.PlayerByNumber(0)
	p.items[ItemFlame] = 6

	m.ExplodeBomb(m.newBomb(p, Position{X: 4, Y: 0}))

	assert.True(t, flameAt(m, 5, 0))
	assert.False(t, flameAt(m, 6, 0))
	assert.False(t, flameAt(m, 7, 0))
	assert.True(t, flameAt(m, 0, 0))
	assert.False(t, flameAt(m, 8, 0), "flames never wrap")
	assert.Equal(t, FlameRight, m.TileAt(Position{X: 5, Y: 0}).Flames[0].Direction)
}

func TestBlockDestroyedAfterBurnout(t *testing.T) {
	m := newTestMap(t, "", []string{"0..x."}, slots(1)...)
	p := m.PlayerByNumber(0)
	block := m.TileAt(Position{X: 3, Y: 0})
	block.Item = ItemBomb

	m.ExplodeBomb(m.newBomb(p, Position{X: 2, Y: 0}))
	require.True(t, block.PendingDestruction)
	assert.Equal(t, ItemBomb, block.Item, "hidden items survive the flame")

	m.Update(FlameBurnoutTime, nil)
	assert.Equal(t, TileFloor, block.Kind)
	assert.False(t, block.PendingDestruction)
	assert.Equal(t, ItemBomb, block.Item)
	assert.NoError(t, m.CheckInvariants())
}

func TestFlameBurnsFloorItems(t *testing.T) {
	m := newTestMap(t, "", []string{"0...."}, slots(1)...)
	p := m.PlayerByNumber(0)
	m.TileAt(Position{X: 3, Y: 0}).Item = ItemSpeedup

	m.ExplodeBomb(m.newBomb(p, Position{X: 2, Y: 0}))
	assert.Equal(t, ItemNone, m.TileAt(Position{X: 3, Y: 0}).Item)
}

func TestChainReaction(t *testing.T) {
	m := newTestMap(t, "", []string{
		"0.......",
		"........",
	}, slots(1)...)
	p := m.PlayerByNumber(0)
	p.items[ItemBomb] = 3
	p.items[ItemFlame] = 1

	first := m.newBomb(p, Position{X: 2, Y: 1})
	second := m.newBomb(p, Position{X: 4, Y: 1})
	third := m.newBomb(p, Position{X: 6, Y: 1})
	far := m.newBomb(p, Position{X: 7, Y: 0})

	m.ExplodeBomb(first)

	assert.True(t, second.Exploded())
	assert.True(t, third.Exploded())
	assert.False(t, far.Exploded())
	assert.True(t, flameAt(m, 7, 1))
	assert.Equal(t, 1, p.ActiveBombs())
}

func TestFlamesMergeOnSameTick(t *testing.T) {
	m := newTestMap(t, "b", []string{"0.....", "......"}, slots(1)...)
	p := m.PlayerByNumber(0)

	left := m.newBomb(p, Position{X: 2, Y: 1})
	right := m.newBomb(p, Position{X: 4, Y: 1})
	m.ExplodeBomb(left)
	m.ExplodeBomb(right)

	middle := m.TileAt(Position{X: 3, Y: 1})
	require.Len(t, middle.Flames, 1)
	assert.Equal(t, FlameHorizontal, middle.Flames[0].Direction)
	assert.Same(t, p, middle.Flames[0].Owner)
}

func TestKillAttribution(t *testing.T) {
	m := newTestMap(t, "", []string{"0.1.2.3"}, []Slot{
		{Number: 0, Team: 0},
		{Number: 1, Team: 0},
		{Number: 2, Team: 1},
		{Number: 3, Team: 2},
	}...)
	owner := m.PlayerByNumber(0)

	m.killPlayer(m.PlayerByNumber(1), owner, AnimationSkeleton)
	assert.Equal(t, 0, owner.Kills(), "teammate kills earn nothing")

	m.killPlayer(m.PlayerByNumber(2), owner, AnimationSkeleton)
	assert.Equal(t, 1, owner.Kills())

	m.killPlayer(m.PlayerByNumber(2), owner, AnimationSkeleton)
	assert.Equal(t, 1, owner.Kills(), "dead players cannot die again")

	m.killPlayer(owner, owner, AnimationSkeleton)
	assert.Equal(t, 0, owner.Kills(), "self kills cost a kill")
	assert.True(t, owner.IsDead())
}

func TestImmortalPlayerSurvivesFlame(t *testing.T) {
	m := newTestMap(t, "", []string{"0.1"}, slots(2)...)
	p := m.PlayerByNumber(1)
	p.immortal = true

	m.ExplodeBomb(m.newBomb(m.PlayerByNumber(0), Position{X: 1, Y: 0}))
	assert.False(t, p.IsDead())
}
