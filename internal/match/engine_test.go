package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.MaxHumans = 2
	cfg.Players = 4
	return NewEngine(cfg, store.NewMemoryStore(), quietLogger())
}

func TestEngineAddHuman(t *testing.T) {
	e := newTestEngine(t)

	n, err := e.AddHuman("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = e.AddHuman("bob")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, e.PlayerCount())

	_, err = e.AddHuman("carol")
	assert.EqualError(t, err, "game is full (2/2 players)")
}

func TestEngineRemovePlayerInLobby(t *testing.T) {
	e := newTestEngine(t)
	e.AddHuman("alice")
	e.AddHuman("bob")

	e.RemovePlayer(0)
	assert.Equal(t, 1, e.PlayerCount())

	n, err := e.AddHuman("carol")
	require.NoError(t, err)
	assert.Equal(t, 0, n, "freed slots are reused")
}

func TestEngineStartGame(t *testing.T) {
	e := newTestEngine(t)
	assert.EqualError(t, e.StartGame(), "need at least 1 player to start")

	e.AddHuman("alice")
	require.NoError(t, e.SetTeam(0, 3))
	require.NoError(t, e.StartGame())
	assert.Equal(t, StatusRunning, e.Status())

	_, err := e.AddHuman("late")
	assert.EqualError(t, err, "game already in progress")
	assert.Error(t, e.StartGame())
	assert.Error(t, e.SetTeam(0, 1))

	f := e.Frame()
	require.Len(t, f.Players, 4, "free slots are filled with AI players")
	assert.Equal(t, SlotHuman, f.Players[0].Kind)
	assert.Equal(t, 3, f.Players[0].Team)
	assert.Equal(t, SlotAI, f.Players[3].Kind)
	require.NotNil(t, f.Snapshot)
	assert.Len(t, f.Snapshot.Players, 4)
	assert.Equal(t, "classic", f.MapName)
	assert.NotEmpty(t, f.MatchID)
}

func TestEngineTickPublishesFrames(t *testing.T) {
	e := newTestEngine(t)
	e.AddHuman("alice")

	var frames []Frame
	e.OnTick(func(f Frame) { frames = append(frames, f) })

	e.tick()
	require.Len(t, frames, 1)
	assert.Equal(t, StatusLobby, frames[0].Status)
	assert.Nil(t, frames[0].Snapshot)
	require.Len(t, frames[0].Players, 1)
	assert.Equal(t, "alice", frames[0].Players[0].Name)

	require.NoError(t, e.StartGame())
	ticks := int(game.StartGameAfter/e.tickDuration()) + 1
	for i := 0; i < ticks; i++ {
		e.tick()
	}

	last := frames[len(frames)-1]
	require.NotNil(t, last.Snapshot)
	assert.Equal(t, game.MatchPlaying, last.Snapshot.State)

	var sawGo bool
	for _, f := range frames {
		if f.Snapshot == nil {
			continue
		}
		for _, s := range f.Snapshot.Sounds {
			if s.Kind == game.SoundGo {
				sawGo = true
			}
		}
	}
	assert.True(t, sawGo)
}

func TestEngineActionsReachThePlayer(t *testing.T) {
	e := newTestEngine(t)
	e.AddHuman("alice")
	require.NoError(t, e.StartGame())
	for e.Frame().Snapshot.State != game.MatchPlaying {
		e.tick()
	}

	e.EnqueueAction(game.PlayerAction{Player: 0, Action: game.ActionBomb})
	e.tick()

	f := e.Frame()
	var owned int
	for _, b := range f.Snapshot.Bombs {
		if b.Owner == 0 {
			owned++
		}
	}
	assert.Equal(t, 1, owned)
}

func TestEngineLobbyActionsAreDropped(t *testing.T) {
	e := newTestEngine(t)
	e.AddHuman("alice")
	e.EnqueueAction(game.PlayerAction{Player: 0, Action: game.ActionBomb})
	e.tick()
	assert.Empty(t, e.drainActions())
}

func TestEngineEnqueueDoesNotBlock(t *testing.T) {
	e := newTestEngine(t)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			e.EnqueueAction(game.PlayerAction{Player: 0, Action: game.ActionUp})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("EnqueueAction blocked")
	}
	assert.Len(t, e.drainActions(), 256)
}

func TestEngineRemovePlayerDuringMatch(t *testing.T) {
	e := newTestEngine(t)
	e.AddHuman("alice")
	e.AddHuman("bob")
	require.NoError(t, e.StartGame())

	e.RemovePlayer(1)
	f := e.Frame()
	assert.Equal(t, SlotAI, f.Players[1].Kind)
	assert.Len(t, f.Snapshot.Players, 4, "the player stays in the round")
}

func TestEngineRunAndStop(t *testing.T) {
	e := newTestEngine(t)
	ticked := make(chan struct{}, 1)
	e.OnTick(func(Frame) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	stopped := make(chan struct{})
	go func() {
		e.Run()
		close(stopped)
	}()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick")
	}
	e.Stop()
	e.Stop()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
