package game

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// MatchState is the state of one round on a map.
type MatchState int

const (
	MatchWaitingToPlay MatchState = iota
	MatchPlaying
	MatchFinishing
	MatchGameOver
)

func (s MatchState) String() string {
	switch s {
	case MatchWaitingToPlay:
		return "waiting"
	case MatchPlaying:
		return "playing"
	case MatchFinishing:
		return "finishing"
	case MatchGameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// Slot describes a player taking part in a round.
type Slot struct {
	Number int
	Team   int
	Name   string
}

// Options holds the tunables of a round.
type Options struct {
	Rand   *rand.Rand
	Tracer Tracer
	Logger logrus.FieldLogger
	// TimeLimit ends the round as a draw once the playing clock reaches it.
	// Zero means no limit.
	TimeLimit time.Duration
	// Immortal lists player numbers that cannot die.
	Immortal []int
	// AllItems gives every player one of each item at the start.
	AllItems   bool
	GameNumber int
	GamesTotal int
}

// DefaultOptions returns options for a single round of at most three minutes.
func DefaultOptions() Options {
	return Options{
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		Tracer:     NopTracer{},
		TimeLimit:  3 * time.Minute,
		GameNumber: 1,
		GamesTotal: 1,
	}
}

// GameMap is the aggregate root of a round: it owns the tiles, the bombs and
// flames, and the players. It is not safe for concurrent use; the runtime
// engine serialises access.
type GameMap struct {
	def    *MapDef
	width  int
	height int
	tiles  [][]*Tile

	players []*Player
	bombs   []*Bomb

	state      MatchState
	time       time.Duration
	playTime   time.Duration
	stateTime  time.Duration
	tick       uint64
	winnerTeam int
	earthquake time.Duration
	timeLimit  time.Duration
	gameNumber int
	gamesTotal int
	nextBombID int

	giveAways       []giveAway
	animationEvents []AnimationEvent
	soundEvents     []SoundEvent

	danger      [][]time.Duration
	dangerValid bool

	rng    *rand.Rand
	tracer Tracer
	log    logrus.FieldLogger
}

// NewGameMap builds a round from a parsed map and the participating slots.
// Map items are hidden under randomly chosen blocks; items beyond the number
// of blocks are dropped.
func NewGameMap(def *MapDef, slots []Slot, opts Options) (*GameMap, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Tracer == nil {
		opts.Tracer = NopTracer{}
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	m := &GameMap{
		def:        def,
		width:      def.Width,
		height:     def.Height,
		winnerTeam: NoWinner,
		timeLimit:  opts.TimeLimit,
		gameNumber: opts.GameNumber,
		gamesTotal: opts.GamesTotal,
		rng:        opts.Rand,
		tracer:     opts.Tracer,
		log:        opts.Logger,
	}

	var blocks []*Tile
	var teleportsA, teleportsB []*Tile
	m.tiles = make([][]*Tile, m.height)
	for y := 0; y < m.height; y++ {
		m.tiles[y] = make([]*Tile, m.width)
		for x := 0; x < m.width; x++ {
			td := def.Tiles[y*m.width+x]
			t := &Tile{Pos: Position{X: x, Y: y}, Kind: td.Kind, Special: td.Special}
			m.tiles[y][x] = t
			switch {
			case t.Kind == TileBlock:
				blocks = append(blocks, t)
			case t.Special == SpecialTeleportA:
				teleportsA = append(teleportsA, t)
			case t.Special == SpecialTeleportB:
				teleportsB = append(teleportsB, t)
			}
		}
	}
	if len(teleportsA) != len(teleportsB) {
		return nil, fmt.Errorf("%w: %d A, %d B", ErrTeleportPair, len(teleportsA), len(teleportsB))
	}
	for i := range teleportsA {
		teleportsA[i].Destination = teleportsB[i].Pos
		teleportsB[i].Destination = teleportsA[i].Pos
	}

	m.rng.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })
	for i, item := range def.MapItems {
		if i >= len(blocks) {
			break
		}
		blocks[i].Item = item
	}

	starts := def.StartPositions()
	seen := make(map[int]bool)
	for _, s := range slots {
		if s.Number < 0 || s.Number >= MaxPlayers || seen[s.Number] {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, s.Number)
		}
		seen[s.Number] = true
		start, ok := starts[s.Number]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrMissingStart, s.Number)
		}
		p := newPlayer(s, start)
		for _, item := range def.PlayerItems {
			m.applyItem(p, item)
		}
		if opts.AllItems {
			for k := ItemFlame; k < numItemKinds; k++ {
				p.GiveItem(k)
			}
		}
		m.players = append(m.players, p)
	}
	for _, n := range opts.Immortal {
		if p := m.PlayerByNumber(n); p != nil {
			p.immortal = true
		}
	}
	sort.Slice(m.players, func(i, j int) bool { return m.players[i].number < m.players[j].number })

	m.soundEvents = nil
	m.animationEvents = nil
	return m, nil
}

// Update advances the round by dt, applying the given actions. Phases run in
// a fixed order: bombs and explosions, flame burnout, player input and
// movement, diseases, pickups, flame and lava kills, give-aways, earthquake
// and finally the win check.
func (m *GameMap) Update(dt time.Duration, actions []PlayerAction) {
	if m.state == MatchGameOver {
		return
	}
	stop := m.tracer.Measure("sim.update")
	defer stop()

	m.tick++
	m.time += dt
	m.stateTime += dt
	m.dangerValid = false

	switch m.state {
	case MatchWaitingToPlay:
		if m.stateTime >= StartGameAfter {
			m.setState(MatchPlaying)
			m.sound(SoundEvent{Kind: SoundGo})
		}
		return
	case MatchFinishing:
		if m.stateTime >= FinishingDuration {
			m.setState(MatchGameOver)
			return
		}
	case MatchPlaying:
		m.playTime += dt
	}

	end := m.tracer.Measure("sim.bombs")
	m.updateBombs(dt)
	end()

	end = m.tracer.Measure("sim.flames")
	m.updateFlames(dt)
	end()

	end = m.tracer.Measure("sim.players")
	m.updatePlayers(dt, actions)
	m.updateDiseases(dt)
	m.pickUpItems()
	m.killFlamedPlayers()
	end()

	m.updateGiveAways()
	if m.earthquake > 0 {
		m.earthquake -= dt
		if m.earthquake < 0 {
			m.earthquake = 0
		}
	}

	if m.state == MatchPlaying {
		m.checkWin()
	}
}

func (m *GameMap) setState(s MatchState) {
	m.log.WithFields(logrus.Fields{"from": m.state, "to": s}).Debug("match state changed")
	m.state = s
	m.stateTime = 0
}

// checkWin ends the round once at most one team is alive or the time limit
// has run out.
func (m *GameMap) checkWin() {
	alive := make(map[int]bool)
	for _, p := range m.players {
		if !p.IsDead() {
			alive[p.team] = true
		}
	}

	switch {
	case len(alive) == 0:
		m.winnerTeam = NoWinner
	case len(alive) == 1:
		for team := range alive {
			m.winnerTeam = team
		}
		for _, p := range m.players {
			if p.team == m.winnerTeam {
				p.wins++
			}
		}
		m.sound(SoundEvent{Kind: SoundWin, Team: m.winnerTeam})
	case m.timeLimit > 0 && m.playTime >= m.timeLimit:
		m.winnerTeam = NoWinner
		m.sound(SoundEvent{Kind: SoundGoAway})
	default:
		return
	}
	m.setState(MatchFinishing)
}

// StartEarthquake starts the timed earthquake effect.
func (m *GameMap) StartEarthquake() {
	m.earthquake = EarthquakeDuration
	m.sound(SoundEvent{Kind: SoundEarthquake})
}

func (m *GameMap) Width() int { return m.width }
func (m *GameMap) Height() int { return m.height }
func (m *GameMap) Environment() string { return m.def.Environment }
func (m *GameMap) State() MatchState { return m.state }
func (m *GameMap) Time() time.Duration { return m.time }
func (m *GameMap) StateTime() time.Duration { return m.stateTime }
func (m *GameMap) WinnerTeam() int { return m.winnerTeam }
func (m *GameMap) GameNumber() int { return m.gameNumber }
func (m *GameMap) GamesTotal() int { return m.gamesTotal }
func (m *GameMap) EarthquakeActive() bool { return m.earthquake > 0 }
func (m *GameMap) Players() []*Player { return m.players }
func (m *GameMap) Bombs() []*Bomb { return m.bombs }

// TimeRemaining is the playing time left before the round is a draw, or -1
// without a limit.
func (m *GameMap) TimeRemaining() time.Duration {
	if m.timeLimit <= 0 {
		return -1
	}
	left := m.timeLimit - m.playTime
	if left < 0 {
		return 0
	}
	return left
}

// PlayerByNumber returns the player with the given number, or nil.
func (m *GameMap) PlayerByNumber(n int) *Player {
	for _, p := range m.players {
		if p.number == n {
			return p
		}
	}
	return nil
}

// TileAt returns the tile at pos, or nil if pos is outside the map. It does
// not wrap.
func (m *GameMap) TileAt(pos Position) *Tile {
	if !m.TileIsWithinMap(pos) {
		return nil
	}
	return m.tiles[pos.Y][pos.X]
}

// TileIsWithinMap reports whether pos lies inside the map.
func (m *GameMap) TileIsWithinMap(pos Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < m.width && pos.Y < m.height
}

// Wrap maps any coordinate onto the map torus.
func (m *GameMap) Wrap(pos Position) Position {
	return Position{X: mod(pos.X, m.width), Y: mod(pos.Y, m.height)}
}

func (m *GameMap) wrapPoint(p Point) Point {
	return Point{
		X: math.Mod(math.Mod(p.X, float64(m.width))+float64(m.width), float64(m.width)),
		Y: math.Mod(math.Mod(p.Y, float64(m.height))+float64(m.height), float64(m.height)),
	}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// TileIsWalkable is false outside the map and for walls, blocks, burning
// tiles and lava. Movement, rolling bombs and the AI all share this rule.
func (m *GameMap) TileIsWalkable(pos Position) bool {
	t := m.TileAt(pos)
	return t != nil && !t.ShouldntWalk()
}

func (m *GameMap) TileHasFlame(pos Position) bool {
	t := m.TileAt(pos)
	return t != nil && t.HasFlame()
}

func (m *GameMap) TileHasLava(pos Position) bool {
	t := m.TileAt(pos)
	return t != nil && t.Special == SpecialLava
}

// TileHasBomb reports whether a grounded bomb lies on the tile. Bombs in
// flight are not on any tile yet.
func (m *GameMap) TileHasBomb(pos Position) bool {
	return m.bombAt(pos) != nil
}

// BlockCount is the number of destructible blocks left.
func (m *GameMap) BlockCount() int {
	n := 0
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.tiles[y][x].Kind == TileBlock {
				n++
			}
		}
	}
	return n
}

// InitialBlockCount is the number of blocks the map started with.
func (m *GameMap) InitialBlockCount() int {
	n := 0
	for _, td := range m.def.Tiles {
		if td.Kind == TileBlock {
			n++
		}
	}
	return n
}

// CheckInvariants reports the first broken structural invariant, if any.
func (m *GameMap) CheckInvariants() error {
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.tiles[y][x]
			if t.Kind == TileWall && (t.Item != ItemNone || t.PendingDestruction) {
				return fmt.Errorf("wall at %d,%d carries an item or is pending destruction", x, y)
			}
		}
	}
	counts := make(map[*Player]int)
	for _, b := range m.bombs {
		if b.exploded {
			return fmt.Errorf("exploded bomb %d still on the map", b.ID)
		}
		counts[b.Owner]++
	}
	for _, p := range m.players {
		if p.activeBombs != counts[p] {
			return fmt.Errorf("player %d has %d active bombs, %d on the map", p.number, p.activeBombs, counts[p])
		}
	}
	return nil
}
