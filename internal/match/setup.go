package match

import (
	"fmt"

	"github.com/amalg/go-bombman/internal/game"
)

// SlotKind tells who controls a player slot.
type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotHuman
	SlotAI
)

func (k SlotKind) String() string {
	switch k {
	case SlotHuman:
		return "human"
	case SlotAI:
		return "ai"
	default:
		return "empty"
	}
}

// SlotSetup is one entry of a PlaySetup.
type SlotSetup struct {
	Kind SlotKind `json:"kind" msgpack:"kind"`
	Team int      `json:"team" msgpack:"team"`
	Name string   `json:"name" msgpack:"name"`
}

// PlaySetup lists who plays, indexed by player number.
type PlaySetup struct {
	Slots [game.MaxPlayers]SlotSetup
}

// NewPlaySetup returns a setup with every slot empty and every player on a
// team of their own.
func NewPlaySetup() PlaySetup {
	var s PlaySetup
	for i := range s.Slots {
		s.Slots[i].Team = i
	}
	return s
}

// Assign puts a player in the first empty slot and returns its number.
func (s *PlaySetup) Assign(kind SlotKind, name string) (int, error) {
	for i := range s.Slots {
		if s.Slots[i].Kind != SlotEmpty {
			continue
		}
		s.Slots[i].Kind = kind
		s.Slots[i].Name = name
		if name == "" {
			s.Slots[i].Name = defaultName(kind, i)
		}
		return i, nil
	}
	return -1, fmt.Errorf("all %d slots taken", game.MaxPlayers)
}

// Release empties a slot.
func (s *PlaySetup) Release(number int) {
	if number < 0 || number >= len(s.Slots) {
		return
	}
	s.Slots[number] = SlotSetup{Team: s.Slots[number].Team}
}

// SetTeam moves a slot to another team.
func (s *PlaySetup) SetTeam(number, team int) error {
	if number < 0 || number >= len(s.Slots) {
		return fmt.Errorf("no slot %d", number)
	}
	if team < 0 || team >= game.MaxPlayers {
		return fmt.Errorf("invalid team %d", team)
	}
	s.Slots[number].Team = team
	return nil
}

// FillWithAI turns empty slots into AI slots until total slots are in use.
func (s *PlaySetup) FillWithAI(total int) {
	for i := range s.Slots {
		if s.Count() >= total {
			return
		}
		if s.Slots[i].Kind == SlotEmpty {
			s.Slots[i].Kind = SlotAI
			s.Slots[i].Name = defaultName(SlotAI, i)
		}
	}
}

// Count is the number of used slots.
func (s *PlaySetup) Count() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.Kind != SlotEmpty {
			n++
		}
	}
	return n
}

// Humans is the number of human slots.
func (s *PlaySetup) Humans() int {
	n := 0
	for _, sl := range s.Slots {
		if sl.Kind == SlotHuman {
			n++
		}
	}
	return n
}

// Teams is the number of distinct teams among used slots.
func (s *PlaySetup) Teams() int {
	teams := make(map[int]bool)
	for _, sl := range s.Slots {
		if sl.Kind != SlotEmpty {
			teams[sl.Team] = true
		}
	}
	return len(teams)
}

// GameSlots converts the used slots for game.NewGameMap.
func (s *PlaySetup) GameSlots() []game.Slot {
	var out []game.Slot
	for i, sl := range s.Slots {
		if sl.Kind == SlotEmpty {
			continue
		}
		out = append(out, game.Slot{Number: i, Team: sl.Team, Name: sl.Name})
	}
	return out
}

func defaultName(kind SlotKind, number int) string {
	if kind == SlotAI {
		return fmt.Sprintf("AI %d", number+1)
	}
	return fmt.Sprintf("Player %d", number+1)
}

// Cheats alter the rules for testing and casual play.
type Cheats struct {
	// AllItems gives every player one of each item at the start of a round.
	AllItems bool
	// ImmortalHumans makes human players unkillable.
	ImmortalHumans bool
}
