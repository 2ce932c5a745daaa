// Package match runs rounds of the game: a multi-round Match with score
// carry-over and the real-time Engine that drives it.
package match

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amalg/go-bombman/internal/ai"
	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/store"
)

// Config holds match settings.
type Config struct {
	TickRate  int // simulation steps per second
	Rounds    int
	MaxHumans int
	// Players is the slot count a match starts with; empty slots are filled
	// with AI players.
	Players   int
	TimeLimit time.Duration
	Seed      int64
	// Maps are chosen at random for each round. The classic layout is
	// generated when empty.
	Maps   []*game.MapDef
	Layout game.LayoutConfig
	Cheats Cheats
	Tracer game.Tracer
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		TickRate:  20,
		Rounds:    3,
		MaxHumans: 4,
		Players:   4,
		TimeLimit: 3 * time.Minute,
		Seed:      time.Now().UnixNano(),
		Layout:    game.DefaultLayoutConfig(),
		Tracer:    game.NopTracer{},
	}
}

// LoadMaps reads map files of the default size. A map is named after its
// file.
func LoadMaps(paths ...string) ([]*game.MapDef, error) {
	maps := make([]*game.MapDef, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read map: %w", err)
		}
		def, err := game.ParseMap(string(data), game.DefaultMapWidth, game.DefaultMapHeight)
		if err != nil {
			return nil, fmt.Errorf("map %s: %w", path, err)
		}
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		maps = append(maps, def)
	}
	return maps, nil
}

type score struct {
	kills int
	wins  int
}

// Match plays a series of rounds with the same players. Kills and wins carry
// over from round to round. It is not safe for concurrent use.
type Match struct {
	ID uuid.UUID

	cfg     Config
	setup   PlaySetup
	rng     *rand.Rand
	log     logrus.FieldLogger
	results store.ResultStore

	round   *game.GameMap
	mapName string
	ais     map[int]*ai.AI
	game    int
	scores  map[int]score
	over    bool

	animations []game.AnimationEvent
	sounds     []game.SoundEvent

	// Round results are written by saveLoop so a slow store never holds up
	// the simulation. saves has room for every round of the match.
	saves       chan store.RoundResult
	saved       chan struct{}
	savesClosed bool
}

// saveTimeout bounds the write of a single round result.
const saveTimeout = 5 * time.Second

// NewMatch creates a match and starts its first round.
func NewMatch(cfg Config, setup PlaySetup, results store.ResultStore, log logrus.FieldLogger) (*Match, error) {
	if setup.Count() == 0 {
		return nil, fmt.Errorf("need at least 1 player to start")
	}
	if cfg.Rounds < 1 {
		cfg.Rounds = 1
	}
	if cfg.Tracer == nil {
		cfg.Tracer = game.NopTracer{}
	}
	if results == nil {
		results = store.NewMemoryStore()
	}

	m := &Match{
		ID:      uuid.New(),
		cfg:     cfg,
		setup:   setup,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		results: results,
		scores:  make(map[int]score),
		saves:   make(chan store.RoundResult, cfg.Rounds),
		saved:   make(chan struct{}),
	}
	m.log = log.WithField("match", m.ID.String())

	if err := m.startRound(); err != nil {
		return nil, err
	}
	go m.saveLoop()
	return m, nil
}

func (m *Match) chooseMap() *game.MapDef {
	if len(m.cfg.Maps) == 0 {
		return game.ClassicLayout(m.cfg.Layout, m.rng)
	}
	return m.cfg.Maps[m.rng.Intn(len(m.cfg.Maps))]
}

func (m *Match) startRound() error {
	m.game++
	def := m.chooseMap()

	var immortal []int
	if m.cfg.Cheats.ImmortalHumans {
		for i, sl := range m.setup.Slots {
			if sl.Kind == SlotHuman {
				immortal = append(immortal, i)
			}
		}
	}

	round, err := game.NewGameMap(def, m.setup.GameSlots(), game.Options{
		Rand:       rand.New(rand.NewSource(m.rng.Int63())),
		Tracer:     m.cfg.Tracer,
		Logger:     m.log.WithField("game", m.game),
		TimeLimit:  m.cfg.TimeLimit,
		Immortal:   immortal,
		AllItems:   m.cfg.Cheats.AllItems,
		GameNumber: m.game,
		GamesTotal: m.cfg.Rounds,
	})
	if err != nil {
		return fmt.Errorf("start game %d on map %q: %w", m.game, def.Name, err)
	}

	for _, p := range round.Players() {
		sc := m.scores[p.Number()]
		p.SetScore(sc.kills, sc.wins)
	}

	m.ais = make(map[int]*ai.AI)
	for i, sl := range m.setup.Slots {
		if sl.Kind == SlotAI {
			m.ais[i] = ai.New(i, rand.New(rand.NewSource(m.rng.Int63())), m.log)
		}
	}

	m.round = round
	m.mapName = def.Name
	m.log.WithFields(logrus.Fields{
		"game":    m.game,
		"of":      m.cfg.Rounds,
		"map":     def.Name,
		"players": len(round.Players()),
	}).Info("round started")
	return nil
}

// Step advances the current round by dt. Human actions for players that
// are not controlled by a human are ignored. When a round is over its
// result is recorded and the next one starts.
func (m *Match) Step(dt time.Duration, actions []game.PlayerAction) {
	if m.over {
		return
	}

	all := make([]game.PlayerAction, 0, len(actions)+len(m.ais))
	for _, a := range actions {
		if a.Player >= 0 && a.Player < len(m.setup.Slots) && m.setup.Slots[a.Player].Kind == SlotHuman {
			all = append(all, a)
		}
	}

	stop := m.cfg.Tracer.Measure("sim.ais")
	for n := 0; n < game.MaxPlayers; n++ {
		if a, ok := m.ais[n]; ok {
			all = append(all, a.Play(m.round)...)
		}
	}
	stop()

	m.round.Update(dt, all)
	m.animations = append(m.animations, m.round.DrainAnimationEvents()...)
	m.sounds = append(m.sounds, m.round.DrainSoundEvents()...)

	if m.round.State() == game.MatchGameOver {
		m.finishRound()
	}
}

func (m *Match) finishRound() {
	result := store.RoundResult{
		MatchID:    m.ID,
		GameNumber: m.game,
		GamesTotal: m.cfg.Rounds,
		MapName:    m.mapName,
		WinnerTeam: m.round.WinnerTeam(),
		Duration:   m.round.Time(),
		PlayedAt:   time.Now(),
	}
	for _, p := range m.round.Players() {
		prev := m.scores[p.Number()]
		result.Players = append(result.Players, store.PlayerResult{
			Number:     p.Number(),
			Name:       p.Name(),
			Team:       p.Team(),
			AI:         m.setup.Slots[p.Number()].Kind == SlotAI,
			Kills:      p.Kills() - prev.kills,
			Won:        p.Team() == m.round.WinnerTeam(),
			TotalKills: p.Kills(),
			TotalWins:  p.Wins(),
		})
		m.scores[p.Number()] = score{kills: p.Kills(), wins: p.Wins()}
	}

	m.queueResult(result)
	m.log.WithFields(logrus.Fields{
		"game":   m.game,
		"winner": m.round.WinnerTeam(),
	}).Info("round finished")

	if m.game >= m.cfg.Rounds {
		m.over = true
		m.closeResults()
		m.log.Info("match over")
		return
	}
	if err := m.startRound(); err != nil {
		m.log.WithError(err).Error("failed to start next round")
		m.over = true
		m.closeResults()
	}
}

func (m *Match) queueResult(r store.RoundResult) {
	if m.savesClosed {
		m.log.WithField("game", r.GameNumber).Warn("match closed, round result dropped")
		return
	}
	m.saves <- r
}

// closeResults stops accepting round results. Queued ones are still written.
func (m *Match) closeResults() {
	if !m.savesClosed {
		m.savesClosed = true
		close(m.saves)
	}
}

// saveLoop writes round results in the order the rounds finished.
func (m *Match) saveLoop() {
	defer close(m.saved)
	for r := range m.saves {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := m.results.SaveRound(ctx, r); err != nil {
			m.log.WithError(err).WithField("game", r.GameNumber).Error("failed to save round result")
		}
		cancel()
	}
}

// ResultsSaved is closed once the match is over and every round result has
// been handed to the store.
func (m *Match) ResultsSaved() <-chan struct{} {
	return m.saved
}

// Close stops accepting round results and waits for the queued ones to be
// written. Like the rest of Match it must not run concurrently with Step.
func (m *Match) Close() {
	m.closeResults()
	<-m.saved
}

// ReplaceWithAI hands a player over to the computer, for example when its
// human left.
func (m *Match) ReplaceWithAI(number int) {
	if number < 0 || number >= len(m.setup.Slots) || m.setup.Slots[number].Kind != SlotHuman {
		return
	}
	m.setup.Slots[number].Kind = SlotAI
	m.ais[number] = ai.New(number, rand.New(rand.NewSource(m.rng.Int63())), m.log)
	m.log.WithField("player", number).Info("player replaced by AI")
}

// Round is the round being played.
func (m *Match) Round() *game.GameMap { return m.round }

// Over reports whether all rounds have been played.
func (m *Match) Over() bool { return m.over }

// GameNumber is the number of the current round, starting at 1.
func (m *Match) GameNumber() int { return m.game }

// Setup returns a copy of the slot setup.
func (m *Match) Setup() PlaySetup { return m.setup }

// MapName is the name of the current round's map.
func (m *Match) MapName() string { return m.mapName }

// Snapshot copies the current round and hands over the events collected
// since the previous snapshot.
func (m *Match) Snapshot() game.Snapshot {
	s := m.round.Snapshot()
	s.Animations = m.animations
	s.Sounds = m.sounds
	m.animations = nil
	m.sounds = nil
	return s
}
