package match

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/store"
)

// Status is the lifecycle state of an engine.
type Status string

const (
	StatusLobby   Status = "lobby"
	StatusRunning Status = "running"
	StatusOver    Status = "over"
)

// LobbyPlayer is a used slot as shown before and during a match.
type LobbyPlayer struct {
	Number int      `json:"number" msgpack:"number"`
	Name   string   `json:"name" msgpack:"name"`
	Team   int      `json:"team" msgpack:"team"`
	Kind   SlotKind `json:"kind" msgpack:"kind"`
}

// Frame is what the engine publishes after every tick.
type Frame struct {
	Status  Status        `json:"status" msgpack:"status"`
	MatchID string        `json:"matchId,omitempty" msgpack:"matchId,omitempty"`
	MapName string        `json:"mapName,omitempty" msgpack:"mapName,omitempty"`
	Players []LobbyPlayer `json:"players" msgpack:"players"`
	// Snapshot is nil while in the lobby.
	Snapshot *game.Snapshot `json:"snapshot,omitempty" msgpack:"snapshot,omitempty"`
}

// Engine is the authoritative game loop: it gathers human input, lets the
// AIs decide and steps the match at a fixed rate.
type Engine struct {
	Config Config

	setup    PlaySetup
	match    *Match
	status   Status
	results  store.ResultStore
	log      logrus.FieldLogger
	actions  chan game.PlayerAction
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	onTick   func(Frame) // Callback after each tick with a copy of the state
}

// NewEngine creates an engine waiting in the lobby.
func NewEngine(config Config, results store.ResultStore, log logrus.FieldLogger) *Engine {
	if config.TickRate <= 0 {
		config.TickRate = DefaultConfig().TickRate
	}
	return &Engine{
		Config:  config,
		setup:   NewPlaySetup(),
		status:  StatusLobby,
		results: results,
		log:     log.WithField("component", "match"),
		actions: make(chan game.PlayerAction, 256),
		done:    make(chan struct{}),
	}
}

// OnTick sets a callback that is invoked after every tick with a copy of
// the state. Used by the network server to broadcast frames to clients.
func (e *Engine) OnTick(fn func(Frame)) {
	e.onTick = fn
}

// Run starts the game loop at the configured tick rate.
// This blocks until Stop() is called.
func (e *Engine) Run() {
	ticker := time.NewTicker(e.tickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// Stop halts the game loop and waits for the round results already queued
// to reach the store. It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })

	e.mu.Lock()
	m := e.match
	if m != nil {
		m.closeResults()
	}
	e.mu.Unlock()

	if m != nil {
		<-m.ResultsSaved()
	}
}

func (e *Engine) tickDuration() time.Duration {
	return time.Second / time.Duration(e.Config.TickRate)
}

// EnqueueAction sends a player action to be processed on the next tick.
func (e *Engine) EnqueueAction(a game.PlayerAction) {
	select {
	case e.actions <- a:
	default:
		// Drop action if buffer is full
	}
}

// AddHuman seats a human player and returns its player number.
func (e *Engine) AddHuman(name string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLobby {
		return -1, fmt.Errorf("game already in progress")
	}
	if e.setup.Humans() >= e.Config.MaxHumans {
		return -1, fmt.Errorf("game is full (%d/%d players)", e.setup.Humans(), e.Config.MaxHumans)
	}
	number, err := e.setup.Assign(SlotHuman, name)
	if err != nil {
		return -1, err
	}
	e.log.WithFields(logrus.Fields{"player": number, "name": name}).Info("player joined")
	return number, nil
}

// AddAI seats a computer player and returns its player number.
func (e *Engine) AddAI() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLobby {
		return -1, fmt.Errorf("game already in progress")
	}
	return e.setup.Assign(SlotAI, "")
}

// SetTeam moves a player to another team before the match starts.
func (e *Engine) SetTeam(number, team int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLobby {
		return fmt.Errorf("game already in progress")
	}
	return e.setup.SetTeam(number, team)
}

// RemovePlayer frees a lobby slot. Once the match runs the player stays in
// the round and the AI takes over.
func (e *Engine) RemovePlayer(number int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusLobby {
		e.setup.Release(number)
	} else if e.match != nil {
		e.match.ReplaceWithAI(number)
	}
	e.log.WithField("player", number).Info("player removed")
}

// StartGame fills the free slots with AI players and starts the first round.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLobby {
		return fmt.Errorf("game already in progress")
	}
	if e.setup.Humans() < 1 {
		return fmt.Errorf("need at least 1 player to start")
	}

	setup := e.setup
	setup.FillWithAI(max(e.Config.Players, 2))
	m, err := NewMatch(e.Config, setup, e.results, e.log)
	if err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	e.setup = setup
	e.match = m
	e.status = StatusRunning
	return nil
}

// tick processes one step: drain actions, step the match, publish a frame.
// The frame is copied while holding the lock and published after releasing
// it, since onTick may call back into the engine.
func (e *Engine) tick() {
	e.mu.Lock()

	actions := e.drainActions()
	if e.status == StatusRunning {
		e.match.Step(e.tickDuration(), actions)
		if e.match.Over() {
			e.status = StatusOver
		}
	}

	frame := e.frameLocked(true)
	e.mu.Unlock()

	if e.onTick != nil {
		e.onTick(frame)
	}
}

func (e *Engine) drainActions() []game.PlayerAction {
	var out []game.PlayerAction
	for {
		select {
		case a := <-e.actions:
			out = append(out, a)
		default:
			return out
		}
	}
}

// Frame returns a copy of the current state without the pending events,
// which are reserved for the next tick's frame.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked(false)
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// PlayerCount is the number of seated humans.
func (e *Engine) PlayerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setup.Humans()
}

// frameLocked builds a frame, draining the match's pending events when
// drain is set. MUST be called while e.mu is held.
func (e *Engine) frameLocked(drain bool) Frame {
	f := Frame{Status: e.status}
	setup := e.setup
	if e.match != nil {
		// Human slots may have been handed to the AI.
		setup = e.match.Setup()
		var snap game.Snapshot
		if drain {
			snap = e.match.Snapshot()
		} else {
			snap = e.match.Round().Snapshot()
		}
		f.Snapshot = &snap
		f.MatchID = e.match.ID.String()
		f.MapName = e.match.MapName()
	}
	for i, sl := range setup.Slots {
		if sl.Kind != SlotEmpty {
			f.Players = append(f.Players, LobbyPlayer{Number: i, Name: sl.Name, Team: sl.Team, Kind: sl.Kind})
		}
	}
	return f
}
