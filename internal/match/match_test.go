package match

import (
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/store"
)

const tick = 50 * time.Millisecond

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// lavaConfig plays on a one-row map where player 0 can walk into lava.
func lavaConfig(t *testing.T, rounds int) Config {
	t.Helper()
	def, err := game.ParseMap("test;;;0V.1", 4, 1)
	require.NoError(t, err)
	def.Name = "lava"

	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.Rounds = rounds
	cfg.TimeLimit = 0
	cfg.Maps = []*game.MapDef{def}
	return cfg
}

func twoHumans() PlaySetup {
	s := NewPlaySetup()
	s.Assign(SlotHuman, "alice")
	s.Assign(SlotHuman, "bob")
	return s
}

// playLosingRound walks player 0 into the lava and waits for game over.
func playLosingRound(t *testing.T, m *Match) {
	t.Helper()
	m.Step(game.StartGameAfter, nil)
	require.Equal(t, game.MatchPlaying, m.Round().State())

	p := m.Round().PlayerByNumber(0)
	for i := 0; i < 20 && !p.IsDead(); i++ {
		m.Step(tick, []game.PlayerAction{{Player: 0, Action: game.ActionRight}})
	}
	require.True(t, p.IsDead())
	require.Equal(t, game.MatchFinishing, m.Round().State())
	m.Step(game.FinishingDuration, nil)
}

func TestMatchRoundsCarryScores(t *testing.T) {
	results := store.NewMemoryStore()
	m, err := NewMatch(lavaConfig(t, 2), twoHumans(), results, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, m.GameNumber())
	assert.Equal(t, "lava", m.MapName())

	playLosingRound(t, m)
	assert.Equal(t, 2, m.GameNumber())
	assert.False(t, m.Over())
	assert.Equal(t, game.MatchWaitingToPlay, m.Round().State())
	assert.Equal(t, 1, m.Round().PlayerByNumber(1).Wins(), "wins carry over")
	assert.Equal(t, 2, m.Round().GameNumber())
	assert.Equal(t, 2, m.Round().GamesTotal())

	playLosingRound(t, m)
	assert.True(t, m.Over())
	assert.Equal(t, 2, m.GameNumber())

	select {
	case <-m.ResultsSaved():
	case <-time.After(2 * time.Second):
		t.Fatal("round results were not written")
	}
	rounds, err := results.Rounds(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	last := rounds[1]
	assert.Equal(t, 1, last.WinnerTeam)
	assert.Equal(t, "lava", last.MapName)
	require.Len(t, last.Players, 2)
	assert.False(t, last.Players[0].Won)
	assert.True(t, last.Players[1].Won)
	assert.Equal(t, 2, last.Players[1].TotalWins)
	assert.False(t, last.Players[1].AI)

	before := m.Round().Time()
	m.Step(tick, nil)
	assert.Equal(t, before, m.Round().Time(), "a finished match does not advance")
}

func TestMatchNeedsPlayers(t *testing.T) {
	_, err := NewMatch(lavaConfig(t, 1), NewPlaySetup(), nil, quietLogger())
	assert.Error(t, err)
}

func TestMatchMissingStartPosition(t *testing.T) {
	setup := twoHumans()
	setup.Assign(SlotAI, "")
	_, err := NewMatch(lavaConfig(t, 1), setup, nil, quietLogger())
	assert.ErrorIs(t, err, game.ErrMissingStart)
}

func TestMatchSnapshotCarriesEvents(t *testing.T) {
	m, err := NewMatch(lavaConfig(t, 1), twoHumans(), nil, quietLogger())
	require.NoError(t, err)

	m.Step(game.StartGameAfter, nil)
	snap := m.Snapshot()
	require.NotEmpty(t, snap.Sounds)
	assert.Equal(t, game.SoundGo, snap.Sounds[0].Kind)
	assert.Equal(t, 1, snap.GameNumber)

	assert.Empty(t, m.Snapshot().Sounds, "events are handed out once")
}

func TestMatchIgnoresActionsForOtherSlots(t *testing.T) {
	setup := NewPlaySetup()
	setup.Assign(SlotHuman, "alice")
	setup.Slots[1] = SlotSetup{Kind: SlotEmpty, Team: 1}
	setup.Slots[3] = SlotSetup{Kind: SlotHuman, Team: 3, Name: "bob"}

	def, err := game.ParseMap("test;;;0..1..3", 7, 1)
	require.NoError(t, err)
	cfg := lavaConfig(t, 1)
	cfg.Maps = []*game.MapDef{def}

	m, err := NewMatch(cfg, setup, nil, quietLogger())
	require.NoError(t, err)
	m.Step(game.StartGameAfter, nil)

	p := m.Round().PlayerByNumber(0)
	start := p.Position()
	m.Step(tick, []game.PlayerAction{{Player: 1, Action: game.ActionLeft}, {Player: 9, Action: game.ActionBomb}})
	assert.Equal(t, start, p.Position())
	assert.Nil(t, m.Round().PlayerByNumber(1))
	assert.Empty(t, m.Round().Bombs())
}

func TestMatchReplaceWithAI(t *testing.T) {
	m, err := NewMatch(lavaConfig(t, 1), twoHumans(), nil, quietLogger())
	require.NoError(t, err)

	m.ReplaceWithAI(1)
	assert.Equal(t, SlotAI, m.Setup().Slots[1].Kind)
	assert.Contains(t, m.ais, 1)

	m.ReplaceWithAI(5)
	assert.Equal(t, SlotEmpty, m.Setup().Slots[5].Kind)
}

func TestMatchCheats(t *testing.T) {
	setup := NewPlaySetup()
	setup.Assign(SlotHuman, "alice")
	setup.Assign(SlotAI, "")

	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Cheats = Cheats{AllItems: true, ImmortalHumans: true}
	m, err := NewMatch(cfg, setup, nil, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "classic", m.MapName())

	human := m.Round().PlayerByNumber(0)
	bot := m.Round().PlayerByNumber(1)
	assert.True(t, human.Immortal())
	assert.False(t, bot.Immortal())
	assert.Equal(t, 1, human.ItemCount(game.ItemShoe))
	assert.Equal(t, 1, bot.ItemCount(game.ItemThrowingGlove))
}

func TestMatchAIsPlay(t *testing.T) {
	setup := NewPlaySetup()
	setup.FillWithAI(4)

	cfg := DefaultConfig()
	cfg.Seed = 3
	cfg.Rounds = 1
	m, err := NewMatch(cfg, setup, nil, quietLogger())
	require.NoError(t, err)

	start := make(map[int]game.Point)
	for _, p := range m.Round().Players() {
		start[p.Number()] = p.Position()
	}
	for i := 0; i < 100; i++ {
		m.Step(tick, nil)
		require.NoError(t, m.Round().CheckInvariants())
	}

	moved := 0
	for _, p := range m.Round().Players() {
		if p.Position() != start[p.Number()] {
			moved++
		}
	}
	assert.Positive(t, moved, "AI players move on their own")
}

func TestLoadMaps(t *testing.T) {
	dir := t.TempDir()
	def := game.ClassicLayout(game.DefaultLayoutConfig(), rand.New(rand.NewSource(1)))
	path := filepath.Join(dir, "arena.txt")
	require.NoError(t, os.WriteFile(path, []byte(def.String()), 0o644))

	maps, err := LoadMaps(path)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.Equal(t, "arena", maps[0].Name)
	assert.Equal(t, def.Tiles, maps[0].Tiles)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("classic;;;..."), 0o644))
	_, err = LoadMaps(bad)
	assert.ErrorIs(t, err, game.ErrTileCount)

	_, err = LoadMaps(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

// slowStore holds every SaveRound until release is closed.
type slowStore struct {
	*store.MemoryStore
	release chan struct{}
}

func (s *slowStore) SaveRound(ctx context.Context, r store.RoundResult) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryStore.SaveRound(ctx, r)
}

func TestMatchSlowStoreDoesNotStallRounds(t *testing.T) {
	results := &slowStore{MemoryStore: store.NewMemoryStore(), release: make(chan struct{})}
	m, err := NewMatch(lavaConfig(t, 2), twoHumans(), results, quietLogger())
	require.NoError(t, err)

	start := time.Now()
	playLosingRound(t, m)
	assert.Less(t, time.Since(start), time.Second, "the round boundary waits for the store")
	assert.Equal(t, 2, m.GameNumber())

	rounds, err := results.Rounds(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds, "the first result is still being written")

	close(results.release)
	playLosingRound(t, m)
	require.True(t, m.Over())
	m.Close()

	rounds, err = results.Rounds(context.Background(), m.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].GameNumber)
	assert.Equal(t, 2, rounds[1].GameNumber)
}

func TestMatchCloseDropsLaterResults(t *testing.T) {
	results := store.NewMemoryStore()
	m, err := NewMatch(lavaConfig(t, 2), twoHumans(), results, quietLogger())
	require.NoError(t, err)

	m.Close()
	m.Close()
	playLosingRound(t, m)

	rounds, err := results.Rounds(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds)
}
