package game

import "time"

// PlayerState is the state machine of a player.
type PlayerState int

const (
	StateStanding PlayerState = iota
	StateWalking
	StateBoxing
	StateThrowing
	StateInAir
	StateTeleporting
	StateDead
)

func (s PlayerState) String() string {
	switch s {
	case StateStanding:
		return "standing"
	case StateWalking:
		return "walking"
	case StateBoxing:
		return "boxing"
	case StateThrowing:
		return "throwing"
	case StateInAir:
		return "in air"
	case StateTeleporting:
		return "teleporting"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Player is a participant on the map. Its state is only written by the
// GameMap during Update.
type Player struct {
	number int
	team   int
	name   string

	pos       Point
	dir       Direction
	state     PlayerState
	stateTime time.Duration
	landing   Position

	items            [numItemKinds]int
	activeBombs      int
	detonatorCharges int
	disease          Disease
	diseaseTime      time.Duration

	kills    int
	wins     int
	immortal bool
}

func newPlayer(slot Slot, start Position) *Player {
	return &Player{
		number: slot.Number,
		team:   slot.Team,
		name:   slot.Name,
		pos:    start.Center(),
		dir:    DirDown,
		state:  StateStanding,
	}
}

func (p *Player) Number() int { return p.number }
func (p *Player) Team() int { return p.team }
func (p *Player) Name() string { return p.name }
func (p *Player) Position() Point { return p.pos }
func (p *Player) Tile() Position { return p.pos.Tile() }
func (p *Player) Direction() Direction { return p.dir }
func (p *Player) State() PlayerState { return p.state }
func (p *Player) StateTime() time.Duration { return p.stateTime }
func (p *Player) Disease() Disease { return p.disease }
func (p *Player) DiseaseTime() time.Duration { return p.diseaseTime }
func (p *Player) Kills() int { return p.kills }
func (p *Player) Wins() int { return p.wins }
func (p *Player) Immortal() bool { return p.immortal }
func (p *Player) DetonatorCharges() int { return p.detonatorCharges }
func (p *Player) ActiveBombs() int { return p.activeBombs }

// SetScore restores kill and win counters carried over from earlier rounds.
func (p *Player) SetScore(kills, wins int) {
	p.kills = kills
	p.wins = wins
}

func (p *Player) IsDead() bool { return p.state == StateDead }
func (p *Player) IsInAir() bool { return p.state == StateInAir }
func (p *Player) IsWalking() bool { return p.state == StateWalking }

// IsEnemy reports whether the other player belongs to a different team.
func (p *Player) IsEnemy(o *Player) bool {
	return p.team != o.team
}

// ItemCount returns how many items of the kind the player holds.
func (p *Player) ItemCount(k ItemKind) int {
	if k <= ItemNone || k >= numItemKinds {
		return 0
	}
	return p.items[k]
}

// GiveItem adds an item directly to the inventory without pickup effects.
func (p *Player) GiveItem(k ItemKind) {
	switch k {
	case ItemNone, ItemRandom, ItemDisease:
		return
	case ItemSuperflame:
		p.items[ItemFlame] = MaxFlameLength - InitialFlameLength
	case ItemDetonator:
		p.items[ItemDetonator]++
		p.detonatorCharges += DetonatorCharges
	default:
		p.items[k]++
	}
}

// FlameLength is the flame length given to newly laid bombs.
func (p *Player) FlameLength() int {
	if p.disease == DiseaseShortFlame {
		return 1
	}
	n := InitialFlameLength + p.items[ItemFlame]
	if n > MaxFlameLength {
		n = MaxFlameLength
	}
	return n
}

// BombCapacity is the maximum number of bombs the player may have on the map.
func (p *Player) BombCapacity() int {
	return InitialBombs + p.items[ItemBomb]
}

// BombsLeft is how many more bombs the player can lay right now.
func (p *Player) BombsLeft() int {
	n := p.BombCapacity() - p.activeBombs
	if n < 0 {
		return 0
	}
	return n
}

func (p *Player) baseSpeed() float64 {
	s := BasePlayerSpeed + SpeedupBonus*float64(p.items[ItemSpeedup])
	if s > MaxPlayerSpeed {
		s = MaxPlayerSpeed
	}
	return s
}

// Speed is the movement speed in tiles per second.
func (p *Player) Speed() float64 {
	if p.disease == DiseaseSlow {
		return SlowSpeed
	}
	return p.baseSpeed()
}

func (p *Player) CanKick() bool { return p.items[ItemShoe] > 0 }
func (p *Player) CanBox() bool { return p.items[ItemBoxingGlove] > 0 }
func (p *Player) CanThrow() bool { return p.items[ItemThrowingGlove] > 0 }
func (p *Player) BombsHaveSpring() bool { return p.items[ItemSpring] > 0 }
func (p *Player) HasMultibomb() bool { return p.items[ItemMultibomb] > 0 }
func (p *Player) HasDetonatorItem() bool { return p.items[ItemDetonator] > 0 }

// MultibombCount is how many bombs a multibomb lay would place.
func (p *Player) MultibombCount() int {
	if !p.HasMultibomb() {
		return 1
	}
	return p.BombsLeft()
}

// ForwardTile is the tile in front of the player, without wrapping.
func (p *Player) ForwardTile() Position {
	return p.Tile().Add(p.dir)
}

// NeighbourTiles returns the four neighbouring tiles in up, right, down, left
// order, without wrapping.
func (p *Player) NeighbourTiles() [4]Position {
	t := p.Tile()
	return [4]Position{t.Add(DirUp), t.Add(DirRight), t.Add(DirDown), t.Add(DirLeft)}
}

func (p *Player) setState(s PlayerState) {
	if p.state == s {
		return
	}
	p.state = s
	p.stateTime = 0
}

// takeItems empties the inventory and returns it as a list of items to give
// away. Detonator charges that were not used are returned as one detonator.
func (p *Player) takeItems() []ItemKind {
	var out []ItemKind
	for k := ItemFlame; k < numItemKinds; k++ {
		n := p.items[k]
		if k == ItemDetonator {
			if p.detonatorCharges > 0 {
				n = 1
			} else {
				n = 0
			}
		}
		for i := 0; i < n; i++ {
			out = append(out, k)
		}
		p.items[k] = 0
	}
	p.detonatorCharges = 0
	return out
}

// bombExploded returns a bomb slot to the player.
func (p *Player) bombExploded() {
	if p.activeBombs > 0 {
		p.activeBombs--
	}
}
