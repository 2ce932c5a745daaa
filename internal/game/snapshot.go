package game

// TileSnapshot is the renderable state of a tile.
type TileSnapshot struct {
	Kind     TileKind       `json:"kind" msgpack:"k"`
	Special  SpecialObject  `json:"special,omitempty" msgpack:"s,omitempty"`
	Item     ItemKind       `json:"item,omitempty" msgpack:"i,omitempty"`
	Flame    bool           `json:"flame,omitempty" msgpack:"f,omitempty"`
	FlameDir FlameDirection `json:"flameDir,omitempty" msgpack:"fd,omitempty"`
	Pending  bool           `json:"pending,omitempty" msgpack:"p,omitempty"`
}

// PlayerSnapshot is the renderable state of a player.
type PlayerSnapshot struct {
	Number      int         `json:"number" msgpack:"number"`
	Team        int         `json:"team" msgpack:"team"`
	Name        string      `json:"name" msgpack:"name"`
	Pos         Point       `json:"pos" msgpack:"pos"`
	Dir         Direction   `json:"dir" msgpack:"dir"`
	State       PlayerState `json:"state" msgpack:"state"`
	StateTimeMs int64       `json:"stateTimeMs" msgpack:"stateTimeMs"`
	Disease     Disease     `json:"disease,omitempty" msgpack:"disease,omitempty"`
	Bombs       int         `json:"bombs" msgpack:"bombs"`
	Flame       int         `json:"flame" msgpack:"flame"`
	Speed       float64     `json:"speed" msgpack:"speed"`
	Items       []ItemKind  `json:"items,omitempty" msgpack:"items,omitempty"`
	Kills       int         `json:"kills" msgpack:"kills"`
	Wins        int         `json:"wins" msgpack:"wins"`
}

// BombSnapshot is the renderable state of a bomb.
type BombSnapshot struct {
	ID          int     `json:"id" msgpack:"id"`
	Owner       int     `json:"owner" msgpack:"owner"`
	Pos         Point   `json:"pos" msgpack:"pos"`
	Height      float64 `json:"height,omitempty" msgpack:"height,omitempty"`
	FuseMs      int64   `json:"fuseMs" msgpack:"fuseMs"`
	Detonator   bool    `json:"detonator,omitempty" msgpack:"detonator,omitempty"`
	FlameLength int     `json:"flameLength" msgpack:"flameLength"`
}

// Snapshot is a copy of everything a renderer needs, safe to hand to other
// goroutines.
type Snapshot struct {
	Width       int              `json:"width" msgpack:"width"`
	Height      int              `json:"height" msgpack:"height"`
	Environment string           `json:"environment" msgpack:"environment"`
	Tiles       []TileSnapshot   `json:"tiles" msgpack:"tiles"`
	Players     []PlayerSnapshot `json:"players" msgpack:"players"`
	Bombs       []BombSnapshot   `json:"bombs" msgpack:"bombs"`
	State       MatchState       `json:"state" msgpack:"state"`
	TimeMs      int64            `json:"timeMs" msgpack:"timeMs"`
	RemainingMs int64            `json:"remainingMs" msgpack:"remainingMs"`
	WinnerTeam  int              `json:"winnerTeam" msgpack:"winnerTeam"`
	GameNumber  int              `json:"gameNumber" msgpack:"gameNumber"`
	GamesTotal  int              `json:"gamesTotal" msgpack:"gamesTotal"`
	Earthquake  bool             `json:"earthquake,omitempty" msgpack:"earthquake,omitempty"`
	Animations  []AnimationEvent `json:"animations,omitempty" msgpack:"animations,omitempty"`
	Sounds      []SoundEvent     `json:"sounds,omitempty" msgpack:"sounds,omitempty"`
}

// TileAt returns the snapshot of the tile at pos, or nil outside the map.
func (s *Snapshot) TileAt(pos Position) *TileSnapshot {
	if pos.X < 0 || pos.Y < 0 || pos.X >= s.Width || pos.Y >= s.Height {
		return nil
	}
	return &s.Tiles[pos.Y*s.Width+pos.X]
}

// Player returns the snapshot of the player with the given number, or nil.
func (s *Snapshot) Player(number int) *PlayerSnapshot {
	for i := range s.Players {
		if s.Players[i].Number == number {
			return &s.Players[i]
		}
	}
	return nil
}

// Snapshot copies the current state. Event queues are not drained.
func (m *GameMap) Snapshot() Snapshot {
	s := Snapshot{
		Width:       m.width,
		Height:      m.height,
		Environment: m.def.Environment,
		Tiles:       make([]TileSnapshot, 0, m.width*m.height),
		Players:     make([]PlayerSnapshot, 0, len(m.players)),
		Bombs:       make([]BombSnapshot, 0, len(m.bombs)),
		State:       m.state,
		TimeMs:      m.time.Milliseconds(),
		RemainingMs: m.TimeRemaining().Milliseconds(),
		WinnerTeam:  m.winnerTeam,
		GameNumber:  m.gameNumber,
		GamesTotal:  m.gamesTotal,
		Earthquake:  m.EarthquakeActive(),
	}
	if m.TimeRemaining() < 0 {
		s.RemainingMs = -1
	}

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			t := m.tiles[y][x]
			ts := TileSnapshot{
				Kind:    t.Kind,
				Special: t.Special,
				Pending: t.PendingDestruction,
			}
			if t.Kind == TileFloor {
				ts.Item = t.Item
			}
			if t.HasFlame() {
				ts.Flame = true
				ts.FlameDir = t.Flames[0].Direction
			}
			s.Tiles = append(s.Tiles, ts)
		}
	}

	for _, p := range m.players {
		ps := PlayerSnapshot{
			Number:      p.number,
			Team:        p.team,
			Name:        p.name,
			Pos:         p.pos,
			Dir:         p.dir,
			State:       p.state,
			StateTimeMs: p.stateTime.Milliseconds(),
			Disease:     p.disease,
			Bombs:       p.BombsLeft(),
			Flame:       p.FlameLength(),
			Speed:       p.Speed(),
			Kills:       p.kills,
			Wins:        p.wins,
		}
		for k := ItemFlame; k < numItemKinds; k++ {
			for i := 0; i < p.items[k]; i++ {
				ps.Items = append(ps.Items, k)
			}
		}
		s.Players = append(s.Players, ps)
	}

	for _, b := range m.bombs {
		owner := -1
		if b.Owner != nil {
			owner = b.Owner.number
		}
		s.Bombs = append(s.Bombs, BombSnapshot{
			ID:          b.ID,
			Owner:       owner,
			Pos:         b.FlightPosition(),
			Height:      b.ArcHeight(),
			FuseMs:      b.TimeUntilExplosion().Milliseconds(),
			Detonator:   b.HasDetonator(),
			FlameLength: b.FlameLength,
		})
	}
	return s
}
